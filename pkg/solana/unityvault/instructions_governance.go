package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

type ProposalParams struct {
	Title                 string
	Description           string
	VotingDuration        int64 // seconds
	MinVotes              uint32
	MinApprovalPercentage uint8
}

type VoteType uint8

const (
	VoteTypeApprove VoteType = iota
	VoteTypeReject
	VoteTypeAbstain
)

func (v VoteType) String() string {
	switch v {
	case VoteTypeApprove:
		return "approve"
	case VoteTypeReject:
		return "reject"
	case VoteTypeAbstain:
		return "abstain"
	}
	return "unknown"
}

type CreateProposalInstructionAccounts struct {
	Proposal ed25519.PublicKey
	Proposer ed25519.PublicKey
}

func NewCreateProposalInstruction(
	program ed25519.PublicKey,
	accounts *CreateProposalInstructionAccounts,
	args *ProposalParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeCreateProposal,
		*args,
		accountMeta(accounts.Proposal, true, false),
		accountMeta(accounts.Proposer, true, true),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeCreateProposalInstruction(ix solana.Instruction) (*CreateProposalInstructionAccounts, *ProposalParams, error) {
	var args ProposalParams
	if err := decodeInstruction(ix, InstructionTypeCreateProposal, 3, &args); err != nil {
		return nil, nil, err
	}
	return &CreateProposalInstructionAccounts{
		Proposal: ix.Accounts[0].PublicKey,
		Proposer: ix.Accounts[1].PublicKey,
	}, &args, nil
}

type VoteProposalInstructionArgs struct {
	VoteType VoteType
}

type VoteProposalInstructionAccounts struct {
	Proposal ed25519.PublicKey
	Vote     ed25519.PublicKey
	Voter    ed25519.PublicKey
}

// NewVoteProposalInstruction records a vote. The vote account is derived
// and allocated by the program itself, so the client does not fund it.
func NewVoteProposalInstruction(
	program ed25519.PublicKey,
	accounts *VoteProposalInstructionAccounts,
	args *VoteProposalInstructionArgs,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeVoteProposal,
		*args,
		accountMeta(accounts.Proposal, true, false),
		accountMeta(accounts.Vote, true, false),
		accountMeta(accounts.Voter, true, true),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeVoteProposalInstruction(ix solana.Instruction) (*VoteProposalInstructionAccounts, *VoteProposalInstructionArgs, error) {
	var args VoteProposalInstructionArgs
	if err := decodeInstruction(ix, InstructionTypeVoteProposal, 4, &args); err != nil {
		return nil, nil, err
	}
	return &VoteProposalInstructionAccounts{
		Proposal: ix.Accounts[0].PublicKey,
		Vote:     ix.Accounts[1].PublicKey,
		Voter:    ix.Accounts[2].PublicKey,
	}, &args, nil
}
