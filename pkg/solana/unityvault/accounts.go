package unityvault

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

type ProposalStatus uint8

const (
	ProposalStatusActive ProposalStatus = iota
	ProposalStatusApproved
	ProposalStatusRejected
)

type CommunityAccount struct {
	Owner       solanago.PublicKey
	Name        string
	Description string
	Rules       string
	IsPrivate   bool
	IsSuspended bool
	MemberCount uint32
	CreatedAt   int64
	UpdatedAt   int64
}

func (obj *CommunityAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindCommunity, *obj)
}

func (obj *CommunityAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindCommunity, obj)
}

func (obj *CommunityAccount) String() string {
	return fmt.Sprintf(
		"Community{owner=%s,name=%s,private=%v,suspended=%v,members=%d}",
		obj.Owner,
		obj.Name,
		obj.IsPrivate,
		obj.IsSuspended,
		obj.MemberCount,
	)
}

type ProposalAccount struct {
	Proposer              solanago.PublicKey
	Title                 string
	Description           string
	VotingEndsAt          int64
	MinVotes              uint32
	MinApprovalPercentage uint8
	ApproveVotes          uint32
	RejectVotes           uint32
	AbstainVotes          uint32
	Status                ProposalStatus
	CreatedAt             int64
}

func (obj *ProposalAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindProposal, *obj)
}

func (obj *ProposalAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindProposal, obj)
}

// TotalVotes counts every vote cast, abstentions included.
func (obj *ProposalAccount) TotalVotes() uint32 {
	return obj.ApproveVotes + obj.RejectVotes + obj.AbstainVotes
}

type VoteAccount struct {
	Proposal solanago.PublicKey
	Voter    solanago.PublicKey
	VoteType VoteType
	VotedAt  int64
}

func (obj *VoteAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindVote, *obj)
}

func (obj *VoteAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindVote, obj)
}

type LendingPoolAccount struct {
	Authority     solanago.PublicKey
	TokenMint     solanago.PublicKey
	TokenVault    solanago.PublicKey
	InterestRate  uint64
	MaxLoanAmount uint64
	MinLoanAmount uint64
	TotalBorrowed uint64
	ActiveLoans   uint32
	CreatedAt     int64
}

func (obj *LendingPoolAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindLendingPool, *obj)
}

func (obj *LendingPoolAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindLendingPool, obj)
}

type LoanAccount struct {
	Pool         solanago.PublicKey
	Borrower     solanago.PublicKey
	Amount       uint64
	InterestRate uint64
	Duration     int64
	StartedAt    int64
	IsRepaid     bool
	RepaidAt     int64
}

func (obj *LoanAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindLoan, *obj)
}

func (obj *LoanAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindLoan, obj)
}

// AmountDue is the principal plus simple interest at the pool rate.
func (obj *LoanAccount) AmountDue() uint64 {
	return obj.Amount + obj.Amount*obj.InterestRate/10_000
}

type TokenInfoAccount struct {
	Creator      solanago.PublicKey
	Mint         solanago.PublicKey
	TokenAccount solanago.PublicKey
	Name         string
	Symbol       string
	Decimals     uint8
	TotalSupply  uint64
	Burned       uint64
	CreatedAt    int64
}

func (obj *TokenInfoAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindTokenInfo, *obj)
}

func (obj *TokenInfoAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindTokenInfo, obj)
}

type UserProfileAccount struct {
	Authority        solanago.PublicKey
	Username         string
	Email            string
	Bio              string
	ProfileImage     string
	SocialLinks      []string
	TwoFactorEnabled bool
	KycVerified      bool
	Kyc              KycData
	CreatedAt        int64
	UpdatedAt        int64
}

func (obj *UserProfileAccount) Marshal() ([]byte, error) {
	return marshalAccount(AccountKindUserProfile, *obj)
}

func (obj *UserProfileAccount) Unmarshal(data []byte) error {
	return unmarshalAccount(data, AccountKindUserProfile, obj)
}
