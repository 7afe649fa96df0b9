// Package governance creates proposals and records votes on them.
package governance

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
)

// Results tallies the votes recorded against a proposal.
type Results struct {
	Proposal *unityvault.ProposalAccount
	Votes    []*unityvault.VoteAccount

	Approve uint32
	Reject  uint32
	Abstain uint32
}

// ApprovalPercentage is the share of approving votes among approve and
// reject votes, or zero when neither was cast.
func (r *Results) ApprovalPercentage() uint8 {
	decided := r.Approve + r.Reject
	if decided == 0 {
		return 0
	}
	return uint8(uint64(r.Approve) * 100 / uint64(decided))
}

// Passes reports whether the tallies meet the proposal's quorum and approval
// threshold.
func (r *Results) Passes() bool {
	total := r.Approve + r.Reject + r.Abstain
	return total >= r.Proposal.MinVotes && r.ApprovalPercentage() >= r.Proposal.MinApprovalPercentage
}

type Client struct {
	log          *logrus.Entry
	orchestrator *vault.Orchestrator
}

func NewClient(orchestrator *vault.Orchestrator) *Client {
	return &Client{
		log:          logrus.StandardLogger().WithField("type", "vault/governance"),
		orchestrator: orchestrator,
	}
}

// PlanCreateProposal derives the proposal address and returns the Atomic
// plan that creates it.
func (c *Client) PlanCreateProposal(proposer solana.Signer, params *unityvault.ProposalParams) (ed25519.PublicKey, *vault.Plan, error) {
	program := c.orchestrator.ProgramID()

	address, _, err := unityvault.GetProposalAddress(program, &unityvault.GetProposalAddressArgs{
		Proposer: proposer.PublicKey(),
		Title:    params.Title,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive proposal address")
	}

	ix, err := unityvault.NewCreateProposalInstruction(
		program,
		&unityvault.CreateProposalInstructionAccounts{
			Proposal: address,
			Proposer: proposer.PublicKey(),
		},
		params,
	)
	if err != nil {
		return nil, nil, err
	}

	return address, &vault.Plan{
		Name:     "governance.create_proposal",
		Strategy: vault.Atomic,
		Payer:    proposer,
		Provisions: []vault.Provision{
			{
				Address: address,
				Size:    unityvault.AccountSize,
				Owner:   program,
			},
		},
		Instructions: []solana.Instruction{ix},
	}, nil
}

// CreateProposal creates the proposal at ["proposal", proposer, title].
func (c *Client) CreateProposal(ctx context.Context, proposer solana.Signer, params *unityvault.ProposalParams) (ed25519.PublicKey, *vault.Receipt, error) {
	address, plan, err := c.PlanCreateProposal(proposer, params)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, plan)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method":   "CreateProposal",
			"proposal": base58.Encode(address),
		}).Info("failure creating proposal")
	}
	return address, result.Last(), err
}

// Vote records the voter's choice. The vote account at ["vote", proposal,
// voter] is allocated by the program and paid for by the voter.
func (c *Client) Vote(ctx context.Context, voter solana.Signer, proposal ed25519.PublicKey, voteType unityvault.VoteType) (ed25519.PublicKey, *vault.Receipt, error) {
	program := c.orchestrator.ProgramID()

	address, _, err := unityvault.GetVoteAddress(program, &unityvault.GetVoteAddressArgs{
		Proposal: proposal,
		Voter:    voter.PublicKey(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive vote address")
	}

	ix, err := unityvault.NewVoteProposalInstruction(
		program,
		&unityvault.VoteProposalInstructionAccounts{
			Proposal: proposal,
			Vote:     address,
			Voter:    voter.PublicKey(),
		},
		&unityvault.VoteProposalInstructionArgs{
			VoteType: voteType,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	receipt, err := c.orchestrator.Run(ctx, "governance.vote", voter, ix)
	return address, receipt, err
}

func (c *Client) GetProposal(ctx context.Context, address ed25519.PublicKey) (*unityvault.ProposalAccount, error) {
	var state unityvault.ProposalAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetVotingResults counts the vote accounts that reference proposal.
func (c *Client) GetVotingResults(ctx context.Context, proposal ed25519.PublicKey) (*Results, error) {
	state, err := c.GetProposal(ctx, proposal)
	if err != nil {
		return nil, err
	}

	accounts, err := c.orchestrator.Reader().ListProgramAccounts(ctx, c.orchestrator.ProgramID())
	if err != nil {
		return nil, err
	}

	results := &Results{
		Proposal: state,
	}
	for _, account := range unityvault.FilterByKind(accounts, unityvault.AccountKindVote) {
		var vote unityvault.VoteAccount
		if err := vote.Unmarshal(account.Account.Data); err != nil {
			return nil, errors.Wrapf(err, "invalid vote %s", base58.Encode(account.PublicKey))
		}
		if !bytes.Equal(vote.Proposal[:], proposal) {
			continue
		}

		switch vote.VoteType {
		case unityvault.VoteTypeApprove:
			results.Approve++
		case unityvault.VoteTypeReject:
			results.Reject++
		case unityvault.VoteTypeAbstain:
			results.Abstain++
		}
		results.Votes = append(results.Votes, &vote)
	}
	return results, nil
}
