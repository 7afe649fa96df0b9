package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
)

var (
	CommunityPrefix   = []byte("community")
	ProposalPrefix    = []byte("proposal")
	VotePrefix        = []byte("vote")
	LendingPoolPrefix = []byte("lending_pool")
	LoanPrefix        = []byte("loan")
	TokenInfoPrefix   = []byte("token_info")
	UserProfilePrefix = []byte("user_profile")
)

type GetCommunityAddressArgs struct {
	Owner ed25519.PublicKey
	Name  string
}

func GetCommunityAddress(program ed25519.PublicKey, args *GetCommunityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		CommunityPrefix,
		args.Owner,
		[]byte(args.Name),
	)
}

type GetProposalAddressArgs struct {
	Proposer ed25519.PublicKey
	Title    string
}

func GetProposalAddress(program ed25519.PublicKey, args *GetProposalAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		ProposalPrefix,
		args.Proposer,
		[]byte(args.Title),
	)
}

type GetVoteAddressArgs struct {
	Proposal ed25519.PublicKey
	Voter    ed25519.PublicKey
}

func GetVoteAddress(program ed25519.PublicKey, args *GetVoteAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		VotePrefix,
		args.Proposal,
		args.Voter,
	)
}

type GetLendingPoolAddressArgs struct {
	Authority ed25519.PublicKey
	Mint      ed25519.PublicKey
}

func GetLendingPoolAddress(program ed25519.PublicKey, args *GetLendingPoolAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		LendingPoolPrefix,
		args.Authority,
		args.Mint,
	)
}

type GetLoanAddressArgs struct {
	Pool     ed25519.PublicKey
	Borrower ed25519.PublicKey
}

func GetLoanAddress(program ed25519.PublicKey, args *GetLoanAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		LoanPrefix,
		args.Pool,
		args.Borrower,
	)
}

type GetTokenInfoAddressArgs struct {
	Creator ed25519.PublicKey
	Mint    ed25519.PublicKey
}

func GetTokenInfoAddress(program ed25519.PublicKey, args *GetTokenInfoAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		TokenInfoPrefix,
		args.Creator,
		args.Mint,
	)
}

type GetUserProfileAddressArgs struct {
	Wallet ed25519.PublicKey
}

func GetUserProfileAddress(program ed25519.PublicKey, args *GetUserProfileAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.DeriveAddress(
		program,
		UserProfilePrefix,
		args.Wallet,
	)
}
