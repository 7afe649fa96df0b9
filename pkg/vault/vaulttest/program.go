// Package vaulttest provides an in-memory stand-in for the unity-vault
// program and helpers for wiring it into vault components under test.
package vaulttest

import (
	"bytes"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/memory"
	"github.com/unity-vault/vault-client/pkg/solana/system"
	"github.com/unity-vault/vault-client/pkg/solana/token"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
)

// Program error codes returned as solana.CustomError.
const (
	ErrorNotProvisioned solana.CustomError = iota + 0x1770
	ErrorInsufficientReserve
	ErrorUnauthorized
	ErrorCommunitySuspended
	ErrorVotingClosed
	ErrorAlreadyVoted
	ErrorInvalidParams
	ErrorLoanOutOfRange
	ErrorLoanRepaid
)

type program struct {
	log *logrus.Entry
	id  ed25519.PublicKey

	// reject, when set, fails every instruction of the given type.
	reject map[unityvault.InstructionType]error
}

// Option configures the simulated program.
type Option func(*program)

// WithRejection makes every instruction of type t fail with err.
func WithRejection(t unityvault.InstructionType, err error) Option {
	return func(p *program) {
		p.reject[t] = err
	}
}

// NewProgram returns a memory.Program that applies unity-vault instructions
// addressed to id.
func NewProgram(id ed25519.PublicKey, opts ...Option) memory.Program {
	p := &program{
		log:    logrus.StandardLogger().WithField("type", "vault/vaulttest/program"),
		id:     id,
		reject: make(map[unityvault.InstructionType]error),
	}
	for _, o := range opts {
		o(p)
	}
	return p.process
}

func (p *program) process(inv *memory.Invocation) error {
	t, err := unityvault.GetInstructionType(inv.Instruction.Data)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	p.log.WithField("instruction", t.String()).Trace("processing instruction")

	if err, ok := p.reject[t]; ok {
		return err
	}

	switch t {
	case unityvault.InstructionTypeCreateCommunity:
		return p.createCommunity(inv)
	case unityvault.InstructionTypeUpdateCommunity:
		return p.updateCommunity(inv)
	case unityvault.InstructionTypeSuspendCommunity:
		return p.suspendCommunity(inv)
	case unityvault.InstructionTypeCreateProposal:
		return p.createProposal(inv)
	case unityvault.InstructionTypeVoteProposal:
		return p.voteProposal(inv)
	case unityvault.InstructionTypeInitLendingPool:
		return p.initLendingPool(inv)
	case unityvault.InstructionTypeCreateLoan:
		return p.createLoan(inv)
	case unityvault.InstructionTypeRepayLoan:
		return p.repayLoan(inv)
	case unityvault.InstructionTypeCreateToken:
		return p.createToken(inv)
	case unityvault.InstructionTypeTransferTokens:
		return p.transferTokens(inv)
	case unityvault.InstructionTypeBurnTokens:
		return p.burnTokens(inv)
	case unityvault.InstructionTypeCreateUserProfile:
		return p.createUserProfile(inv)
	case unityvault.InstructionTypeUpdateUserProfile:
		return p.updateUserProfile(inv)
	case unityvault.InstructionTypeEnableTwoFactor:
		return p.enableTwoFactor(inv)
	case unityvault.InstructionTypeVerifyKyc:
		return p.verifyKyc(inv)
	}
	return memory.Fail(solana.InstructionErrorInvalidInstructionData)
}

type state interface {
	Marshal() ([]byte, error)
}

// initialize writes state into a provisioned account. Accounts funded by a
// plain transfer are still system owned and unallocated, so they are
// allocated and assigned here. Accounts created for the program must be
// zeroed.
func (p *program) initialize(inv *memory.Invocation, address ed25519.PublicKey, s state) error {
	info, ok := inv.Account(address)
	if !ok || info.Lamports == 0 {
		return ErrorNotProvisioned
	}

	switch {
	case bytes.Equal(info.Owner, system.ProgramKey[:]) && len(info.Data) == 0:
		if info.Lamports < inv.MinimumBalance(unityvault.AccountSize) {
			return ErrorInsufficientReserve
		}
	case bytes.Equal(info.Owner, p.id):
		if unityvault.IsInitialized(info.Data) {
			return memory.Fail(solana.InstructionErrorAccountAlreadyInitialized)
		}
		if len(info.Data) != unityvault.AccountSize {
			return memory.Fail(solana.InstructionErrorAccountDataTooSmall)
		}
	default:
		return memory.Fail(solana.InstructionErrorIncorrectProgramID)
	}

	data, err := s.Marshal()
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidAccountData)
	}

	info.Owner = p.id
	info.Data = data
	return inv.Put(address, info)
}

type unmarshaler interface {
	Unmarshal(data []byte) error
}

// load decodes a program owned account into dst.
func (p *program) load(inv *memory.Invocation, address ed25519.PublicKey, dst unmarshaler) (solana.AccountInfo, error) {
	info, ok := inv.Account(address)
	if !ok {
		return info, memory.Fail(solana.InstructionErrorUninitializedAccount)
	}
	if !bytes.Equal(info.Owner, p.id) {
		return info, memory.Fail(solana.InstructionErrorIncorrectProgramID)
	}
	if !unityvault.IsInitialized(info.Data) {
		return info, memory.Fail(solana.InstructionErrorUninitializedAccount)
	}
	if err := dst.Unmarshal(info.Data); err != nil {
		return info, memory.Fail(solana.InstructionErrorInvalidAccountData)
	}
	return info, nil
}

// store re-encodes an already loaded account.
func (p *program) store(inv *memory.Invocation, address ed25519.PublicKey, info solana.AccountInfo, s state) error {
	data, err := s.Marshal()
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidAccountData)
	}
	info.Data = data
	return inv.Put(address, info)
}

func (p *program) requireSigner(inv *memory.Invocation, address ed25519.PublicKey) error {
	if !inv.IsSigner(address) {
		return memory.Fail(solana.InstructionErrorMissingRequiredSignature)
	}
	return nil
}

func (p *program) requireAddress(actual ed25519.PublicKey, expected ed25519.PublicKey, err error) error {
	if err != nil || !bytes.Equal(actual, expected) {
		return memory.Fail(solana.InstructionErrorInvalidSeeds)
	}
	return nil
}

func (p *program) now(inv *memory.Invocation) int64 {
	return inv.Time.Unix()
}

func (p *program) createCommunity(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeCreateCommunityInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Owner); err != nil {
		return err
	}

	expected, _, err := unityvault.GetCommunityAddress(p.id, &unityvault.GetCommunityAddressArgs{
		Owner: accounts.Owner,
		Name:  args.Name,
	})
	if err := p.requireAddress(accounts.Community, expected, err); err != nil {
		return err
	}

	return p.initialize(inv, accounts.Community, &unityvault.CommunityAccount{
		Owner:       unityvault.Key(accounts.Owner),
		Name:        args.Name,
		Description: args.Description,
		Rules:       args.Rules,
		IsPrivate:   args.IsPrivate,
		MemberCount: 1,
		CreatedAt:   p.now(inv),
		UpdatedAt:   p.now(inv),
	})
}

func (p *program) loadOwnedCommunity(inv *memory.Invocation, address, owner ed25519.PublicKey) (*unityvault.CommunityAccount, solana.AccountInfo, error) {
	if err := p.requireSigner(inv, owner); err != nil {
		return nil, solana.AccountInfo{}, err
	}

	var community unityvault.CommunityAccount
	info, err := p.load(inv, address, &community)
	if err != nil {
		return nil, info, err
	}
	if !bytes.Equal(community.Owner[:], owner) {
		return nil, info, ErrorUnauthorized
	}
	if community.IsSuspended {
		return nil, info, ErrorCommunitySuspended
	}
	return &community, info, nil
}

func (p *program) updateCommunity(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeUpdateCommunityInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	community, info, err := p.loadOwnedCommunity(inv, accounts.Community, accounts.Owner)
	if err != nil {
		return err
	}

	// The name is part of the address and cannot change.
	if args.Name != community.Name {
		return ErrorInvalidParams
	}

	community.Description = args.Description
	community.Rules = args.Rules
	community.IsPrivate = args.IsPrivate
	community.UpdatedAt = p.now(inv)
	return p.store(inv, accounts.Community, info, community)
}

func (p *program) suspendCommunity(inv *memory.Invocation) error {
	accounts, err := unityvault.DecodeSuspendCommunityInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	community, info, err := p.loadOwnedCommunity(inv, accounts.Community, accounts.Owner)
	if err != nil {
		return err
	}

	community.IsSuspended = true
	community.UpdatedAt = p.now(inv)
	return p.store(inv, accounts.Community, info, community)
}

func (p *program) createProposal(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeCreateProposalInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Proposer); err != nil {
		return err
	}
	if args.VotingDuration <= 0 || args.MinApprovalPercentage > 100 {
		return ErrorInvalidParams
	}

	expected, _, err := unityvault.GetProposalAddress(p.id, &unityvault.GetProposalAddressArgs{
		Proposer: accounts.Proposer,
		Title:    args.Title,
	})
	if err := p.requireAddress(accounts.Proposal, expected, err); err != nil {
		return err
	}

	return p.initialize(inv, accounts.Proposal, &unityvault.ProposalAccount{
		Proposer:              unityvault.Key(accounts.Proposer),
		Title:                 args.Title,
		Description:           args.Description,
		VotingEndsAt:          p.now(inv) + args.VotingDuration,
		MinVotes:              args.MinVotes,
		MinApprovalPercentage: args.MinApprovalPercentage,
		Status:                unityvault.ProposalStatusActive,
		CreatedAt:             p.now(inv),
	})
}

// voteProposal allocates the vote account itself, funded by the voter.
func (p *program) voteProposal(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeVoteProposalInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Voter); err != nil {
		return err
	}

	expected, _, err := unityvault.GetVoteAddress(p.id, &unityvault.GetVoteAddressArgs{
		Proposal: accounts.Proposal,
		Voter:    accounts.Voter,
	})
	if err := p.requireAddress(accounts.Vote, expected, err); err != nil {
		return err
	}

	var proposal unityvault.ProposalAccount
	proposalInfo, err := p.load(inv, accounts.Proposal, &proposal)
	if err != nil {
		return err
	}
	if proposal.Status != unityvault.ProposalStatusActive || p.now(inv) >= proposal.VotingEndsAt {
		return ErrorVotingClosed
	}

	if existing, ok := inv.Account(accounts.Vote); ok && (existing.Lamports > 0 || len(existing.Data) > 0) {
		return ErrorAlreadyVoted
	}

	switch args.VoteType {
	case unityvault.VoteTypeApprove:
		proposal.ApproveVotes++
	case unityvault.VoteTypeReject:
		proposal.RejectVotes++
	case unityvault.VoteTypeAbstain:
		proposal.AbstainVotes++
	default:
		return ErrorInvalidParams
	}

	reserve := inv.MinimumBalance(unityvault.AccountSize)
	voter, ok := inv.Account(accounts.Voter)
	if !ok || voter.Lamports < reserve {
		return memory.Fail(solana.InstructionErrorInsufficientFunds)
	}
	voter.Lamports -= reserve
	if err := inv.Put(accounts.Voter, voter); err != nil {
		return err
	}

	vote := &unityvault.VoteAccount{
		Proposal: unityvault.Key(accounts.Proposal),
		Voter:    unityvault.Key(accounts.Voter),
		VoteType: args.VoteType,
		VotedAt:  p.now(inv),
	}
	data, err := vote.Marshal()
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidAccountData)
	}
	if err := inv.Put(accounts.Vote, solana.AccountInfo{
		Data:     data,
		Owner:    p.id,
		Lamports: reserve,
	}); err != nil {
		return err
	}

	return p.store(inv, accounts.Proposal, proposalInfo, &proposal)
}

func (p *program) initLendingPool(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeInitLendingPoolInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Authority); err != nil {
		return err
	}
	if args.MinLoanAmount > args.MaxLoanAmount {
		return ErrorInvalidParams
	}

	expected, _, err := unityvault.GetLendingPoolAddress(p.id, &unityvault.GetLendingPoolAddressArgs{
		Authority: accounts.Authority,
		Mint:      accounts.TokenMint,
	})
	if err := p.requireAddress(accounts.Pool, expected, err); err != nil {
		return err
	}

	return p.initialize(inv, accounts.Pool, &unityvault.LendingPoolAccount{
		Authority:     unityvault.Key(accounts.Authority),
		TokenMint:     unityvault.Key(accounts.TokenMint),
		TokenVault:    unityvault.Key(accounts.TokenVault),
		InterestRate:  args.InterestRate,
		MaxLoanAmount: args.MaxLoanAmount,
		MinLoanAmount: args.MinLoanAmount,
		CreatedAt:     p.now(inv),
	})
}

func (p *program) createLoan(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeCreateLoanInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Borrower); err != nil {
		return err
	}

	expected, _, err := unityvault.GetLoanAddress(p.id, &unityvault.GetLoanAddressArgs{
		Pool:     accounts.Pool,
		Borrower: accounts.Borrower,
	})
	if err := p.requireAddress(accounts.Loan, expected, err); err != nil {
		return err
	}

	var pool unityvault.LendingPoolAccount
	poolInfo, err := p.load(inv, accounts.Pool, &pool)
	if err != nil {
		return err
	}
	if args.Amount < pool.MinLoanAmount || args.Amount > pool.MaxLoanAmount {
		return ErrorLoanOutOfRange
	}
	if args.Duration <= 0 {
		return ErrorInvalidParams
	}

	if err := p.initialize(inv, accounts.Loan, &unityvault.LoanAccount{
		Pool:         unityvault.Key(accounts.Pool),
		Borrower:     unityvault.Key(accounts.Borrower),
		Amount:       args.Amount,
		InterestRate: pool.InterestRate,
		Duration:     args.Duration,
		StartedAt:    p.now(inv),
	}); err != nil {
		return err
	}

	pool.TotalBorrowed += args.Amount
	pool.ActiveLoans++
	return p.store(inv, accounts.Pool, poolInfo, &pool)
}

func (p *program) repayLoan(inv *memory.Invocation) error {
	accounts, err := unityvault.DecodeRepayLoanInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Borrower); err != nil {
		return err
	}

	var loan unityvault.LoanAccount
	loanInfo, err := p.load(inv, accounts.Loan, &loan)
	if err != nil {
		return err
	}
	if !bytes.Equal(loan.Borrower[:], accounts.Borrower) || !bytes.Equal(loan.Pool[:], accounts.Pool) {
		return ErrorUnauthorized
	}
	if loan.IsRepaid {
		return ErrorLoanRepaid
	}

	var pool unityvault.LendingPoolAccount
	poolInfo, err := p.load(inv, accounts.Pool, &pool)
	if err != nil {
		return err
	}

	loan.IsRepaid = true
	loan.RepaidAt = p.now(inv)
	if err := p.store(inv, accounts.Loan, loanInfo, &loan); err != nil {
		return err
	}

	pool.TotalBorrowed -= loan.Amount
	pool.ActiveLoans--
	return p.store(inv, accounts.Pool, poolInfo, &pool)
}

// createToken initializes the mint and token account created by the
// funding step, minting the whole supply to the creator.
func (p *program) createToken(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeCreateTokenInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Creator); err != nil {
		return err
	}
	if len(args.Symbol) == 0 || args.TotalSupply == 0 {
		return ErrorInvalidParams
	}

	expected, _, err := unityvault.GetTokenInfoAddress(p.id, &unityvault.GetTokenInfoAddressArgs{
		Creator: accounts.Creator,
		Mint:    accounts.Mint,
	})
	if err := p.requireAddress(accounts.TokenInfo, expected, err); err != nil {
		return err
	}

	mintInfo, err := tokenOwned(inv, accounts.Mint, token.MintSize)
	if err != nil {
		return err
	}
	var mint token.Mint
	mint.Unmarshal(mintInfo.Data)
	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}

	tokenAccountInfo, err := tokenOwned(inv, accounts.TokenAccount, token.AccountSize)
	if err != nil {
		return err
	}
	var tokenAccount token.Account
	tokenAccount.Unmarshal(tokenAccountInfo.Data)
	if tokenAccount.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}

	mint = token.Mint{
		MintAuthority: accounts.Creator,
		Supply:        args.TotalSupply,
		Decimals:      args.Decimals,
		IsInitialized: true,
	}
	mintInfo.Data = mint.Marshal()
	if err := inv.Put(accounts.Mint, mintInfo); err != nil {
		return err
	}

	tokenAccount = token.Account{
		Mint:   accounts.Mint,
		Owner:  accounts.Creator,
		Amount: args.TotalSupply,
		State:  token.AccountStateInitialized,
	}
	tokenAccountInfo.Data = tokenAccount.Marshal()
	if err := inv.Put(accounts.TokenAccount, tokenAccountInfo); err != nil {
		return err
	}

	return p.initialize(inv, accounts.TokenInfo, &unityvault.TokenInfoAccount{
		Creator:      unityvault.Key(accounts.Creator),
		Mint:         unityvault.Key(accounts.Mint),
		TokenAccount: unityvault.Key(accounts.TokenAccount),
		Name:         args.Name,
		Symbol:       args.Symbol,
		Decimals:     args.Decimals,
		TotalSupply:  args.TotalSupply,
		CreatedAt:    p.now(inv),
	})
}

func tokenOwned(inv *memory.Invocation, address ed25519.PublicKey, size int) (solana.AccountInfo, error) {
	info, ok := inv.Account(address)
	if !ok {
		return info, token.ErrorUninitializedState
	}
	if !bytes.Equal(info.Owner, token.ProgramKey) {
		return info, memory.Fail(solana.InstructionErrorIncorrectProgramID)
	}
	if len(info.Data) != size {
		return info, memory.Fail(solana.InstructionErrorInvalidAccountData)
	}
	return info, nil
}

func loadTokenAccount(inv *memory.Invocation, address ed25519.PublicKey) (*token.Account, solana.AccountInfo, error) {
	info, err := tokenOwned(inv, address, token.AccountSize)
	if err != nil {
		return nil, info, err
	}

	var account token.Account
	account.Unmarshal(info.Data)
	if account.State != token.AccountStateInitialized {
		return nil, info, token.ErrorUninitializedState
	}
	return &account, info, nil
}

func (p *program) transferTokens(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeTransferTokensInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Owner); err != nil {
		return err
	}

	from, fromInfo, err := loadTokenAccount(inv, accounts.From)
	if err != nil {
		return err
	}
	to, toInfo, err := loadTokenAccount(inv, accounts.To)
	if err != nil {
		return err
	}

	if !bytes.Equal(from.Owner, accounts.Owner) || !bytes.Equal(to.Owner, accounts.Recipient) {
		return token.ErrorOwnerMismatch
	}
	if !bytes.Equal(from.Mint, to.Mint) {
		return token.ErrorMintMismatch
	}
	if from.Amount < args.Amount {
		return token.ErrorInsufficientFunds
	}
	if bytes.Equal(accounts.From, accounts.To) {
		return nil
	}

	from.Amount -= args.Amount
	to.Amount += args.Amount

	fromInfo.Data = from.Marshal()
	toInfo.Data = to.Marshal()
	if err := inv.Put(accounts.From, fromInfo); err != nil {
		return err
	}
	return inv.Put(accounts.To, toInfo)
}

func (p *program) burnTokens(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeBurnTokensInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Owner); err != nil {
		return err
	}

	account, info, err := loadTokenAccount(inv, accounts.TokenAccount)
	if err != nil {
		return err
	}
	if !bytes.Equal(account.Owner, accounts.Owner) {
		return token.ErrorOwnerMismatch
	}
	if account.Amount < args.Amount {
		return token.ErrorInsufficientFunds
	}

	account.Amount -= args.Amount
	info.Data = account.Marshal()
	return inv.Put(accounts.TokenAccount, info)
}

func (p *program) createUserProfile(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeCreateUserProfileInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}
	if err := p.requireSigner(inv, accounts.Wallet); err != nil {
		return err
	}
	if len(args.Username) == 0 {
		return ErrorInvalidParams
	}

	expected, _, err := unityvault.GetUserProfileAddress(p.id, &unityvault.GetUserProfileAddressArgs{
		Wallet: accounts.Wallet,
	})
	if err := p.requireAddress(accounts.Profile, expected, err); err != nil {
		return err
	}

	return p.initialize(inv, accounts.Profile, &unityvault.UserProfileAccount{
		Authority:    unityvault.Key(accounts.Wallet),
		Username:     args.Username,
		Email:        args.Email,
		Bio:          args.Bio,
		ProfileImage: args.ProfileImage,
		SocialLinks:  args.SocialLinks,
		CreatedAt:    p.now(inv),
		UpdatedAt:    p.now(inv),
	})
}

func (p *program) loadOwnedProfile(inv *memory.Invocation, accounts *unityvault.ProfileInstructionAccounts) (*unityvault.UserProfileAccount, solana.AccountInfo, error) {
	if err := p.requireSigner(inv, accounts.Wallet); err != nil {
		return nil, solana.AccountInfo{}, err
	}

	var profile unityvault.UserProfileAccount
	info, err := p.load(inv, accounts.Profile, &profile)
	if err != nil {
		return nil, info, err
	}
	if !bytes.Equal(profile.Authority[:], accounts.Wallet) {
		return nil, info, ErrorUnauthorized
	}
	return &profile, info, nil
}

func (p *program) updateUserProfile(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeUpdateUserProfileInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	profile, info, err := p.loadOwnedProfile(inv, accounts)
	if err != nil {
		return err
	}

	profile.Username = args.Username
	profile.Email = args.Email
	profile.Bio = args.Bio
	profile.ProfileImage = args.ProfileImage
	profile.SocialLinks = args.SocialLinks
	profile.UpdatedAt = p.now(inv)
	return p.store(inv, accounts.Profile, info, profile)
}

func (p *program) enableTwoFactor(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeEnableTwoFactorInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	profile, info, err := p.loadOwnedProfile(inv, accounts)
	if err != nil {
		return err
	}
	if len(args.Secret) == 0 {
		return ErrorInvalidParams
	}

	profile.TwoFactorEnabled = true
	profile.UpdatedAt = p.now(inv)
	return p.store(inv, accounts.Profile, info, profile)
}

func (p *program) verifyKyc(inv *memory.Invocation) error {
	accounts, args, err := unityvault.DecodeVerifyKycInstruction(inv.Instruction)
	if err != nil {
		return memory.Fail(solana.InstructionErrorInvalidInstructionData)
	}

	profile, info, err := p.loadOwnedProfile(inv, accounts)
	if err != nil {
		return err
	}

	profile.Kyc = *args
	profile.KycVerified = true
	profile.UpdatedAt = p.now(inv)
	return p.store(inv, accounts.Profile, info, profile)
}
