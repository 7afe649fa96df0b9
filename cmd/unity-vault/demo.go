package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
	"github.com/unity-vault/vault-client/pkg/vault/community"
	"github.com/unity-vault/vault-client/pkg/vault/governance"
	"github.com/unity-vault/vault-client/pkg/vault/lending"
	"github.com/unity-vault/vault-client/pkg/vault/profile"
	"github.com/unity-vault/vault-client/pkg/vault/tokenization"
)

const (
	demoMinBalance = 2 * lamportsPerSol

	airdropWait = 30 * time.Second
)

// runDemo walks through every domain with the payer wallet, funding it from
// the cluster faucet first if needed.
func runDemo(ctx context.Context, env *environment, _ []string) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"method": "runDemo",
		"payer":  base58.Encode(env.payer.PublicKey()),
	})

	if err := ensureBalance(ctx, env, demoMinBalance); err != nil {
		return err
	}

	// Seeds are bound to 32 bytes, so only part of the id is used.
	suffix := uuid.New().String()[:8]

	communities := community.NewClient(env.orchestrator)
	communityAddress, receipt, err := communities.CreateCommunity(ctx, env.payer, &unityvault.CommunityParams{
		Name:        "demo-" + suffix,
		Description: "A community created by the unity-vault demo",
		Rules:       []string{"Be respectful", "No spam"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create community")
	}
	printCreated("community", communityAddress, receipt)

	proposals := governance.NewClient(env.orchestrator)
	proposal, receipt, err := proposals.CreateProposal(ctx, env.payer, &unityvault.ProposalParams{
		Title:                 "proposal-" + suffix,
		Description:           "Adopt the demo rules",
		VotingDuration:        int64((24 * time.Hour).Seconds()),
		MinVotes:              1,
		MinApprovalPercentage: 51,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create proposal")
	}
	printCreated("proposal", proposal, receipt)

	vote, receipt, err := proposals.Vote(ctx, env.payer, proposal, unityvault.VoteTypeApprove)
	if err != nil {
		return errors.Wrap(err, "failed to vote")
	}
	printCreated("vote", vote, receipt)

	results, err := proposals.GetVotingResults(ctx, proposal)
	if err != nil {
		return errors.Wrap(err, "failed to get voting results")
	}
	fmt.Fprintf(out, "results approve=%d reject=%d abstain=%d passes=%t\n", results.Approve, results.Reject, results.Abstain, results.Passes())

	tokens := tokenization.NewClient(env.orchestrator)
	created, result, err := tokens.CreateToken(ctx, env.payer, &unityvault.TokenParams{
		Name:        "Demo " + suffix,
		Symbol:      "DEMO",
		Decimals:    6,
		TotalSupply: 1_000_000_000,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create token")
	}
	printResult("token info", created.TokenInfo, result)

	pools := lending.NewClient(env.orchestrator)
	pool, result, err := pools.InitLendingPool(ctx, env.payer, &lending.PoolAccounts{
		TokenMint:  created.Mint,
		TokenVault: created.TokenAccount,
	}, &unityvault.LendingPoolParams{
		InterestRate:  500,
		MinLoanAmount: 100,
		MaxLoanAmount: 1_000_000,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize lending pool")
	}
	printResult("lending pool", pool, result)

	loan, receipt, err := pools.CreateLoan(ctx, env.payer, pool, &unityvault.LoanParams{
		Amount:   1_000,
		Duration: int64((30 * 24 * time.Hour).Seconds()),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create loan")
	}
	printCreated("loan", loan, receipt)

	if receipt, err = pools.RepayLoan(ctx, env.payer, pool); err != nil {
		return errors.Wrap(err, "failed to repay loan")
	}
	fmt.Fprintf(out, "repaid %s\n", receipt)

	if receipt, err = tokens.BurnTokens(ctx, env.payer, created.TokenAccount, 1_000); err != nil {
		return errors.Wrap(err, "failed to burn tokens")
	}
	fmt.Fprintf(out, "burned %s\n", receipt)

	profiles := profile.NewClient(env.orchestrator)
	_, err = profiles.GetProfile(ctx, env.payer.PublicKey())
	switch {
	case errors.Is(err, vault.ErrNotFound):
		address, receipt, err := profiles.CreateProfile(ctx, env.payer, &unityvault.UserProfileParams{
			Username: "user-" + suffix,
			Bio:      "Created by the unity-vault demo",
		})
		if err != nil {
			return errors.Wrap(err, "failed to create profile")
		}
		printCreated("profile", address, receipt)
	case err != nil:
		return errors.Wrap(err, "failed to get profile")
	default:
		log.Info("profile already exists, skipping")
	}

	return nil
}

// ensureBalance requests an airdrop when the payer holds less than minimum and
// waits for it to land.
func ensureBalance(ctx context.Context, env *environment, minimum uint64) error {
	payer := env.payer.PublicKey()

	balance, err := env.client.GetBalance(ctx, payer)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if balance >= minimum {
		return nil
	}

	if _, err := env.client.RequestAirdrop(ctx, payer, minimum-balance, env.orchestrator.Config().Commitment); err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	ctx, cancel := context.WithTimeout(ctx, airdropWait)
	defer cancel()

	ticker := time.NewTicker(env.orchestrator.Config().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "airdrop did not land")
		case <-ticker.C:
		}

		balance, err = env.client.GetBalance(ctx, payer)
		if err != nil {
			continue
		}
		if balance >= minimum {
			return nil
		}
	}
}
