// Package lending manages lending pools and the loans drawn from them.
package lending

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
)

// PoolAccounts are the token accounts a lending pool is bound to.
type PoolAccounts struct {
	TokenMint  ed25519.PublicKey
	TokenVault ed25519.PublicKey
}

type Client struct {
	log          *logrus.Entry
	orchestrator *vault.Orchestrator
}

func NewClient(orchestrator *vault.Orchestrator) *Client {
	return &Client{
		log:          logrus.StandardLogger().WithField("type", "vault/lending"),
		orchestrator: orchestrator,
	}
}

// PlanInitLendingPool derives the pool address and returns the FundThenInit
// plan: a transfer of the reserve to the pool, then InitLendingPool.
func (c *Client) PlanInitLendingPool(authority solana.Signer, accounts *PoolAccounts, params *unityvault.LendingPoolParams) (ed25519.PublicKey, *vault.Plan, error) {
	program := c.orchestrator.ProgramID()

	address, _, err := unityvault.GetLendingPoolAddress(program, &unityvault.GetLendingPoolAddressArgs{
		Authority: authority.PublicKey(),
		Mint:      accounts.TokenMint,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive lending pool address")
	}

	ix, err := unityvault.NewInitLendingPoolInstruction(
		program,
		&unityvault.InitLendingPoolInstructionAccounts{
			Pool:       address,
			Authority:  authority.PublicKey(),
			TokenMint:  accounts.TokenMint,
			TokenVault: accounts.TokenVault,
		},
		params,
	)
	if err != nil {
		return nil, nil, err
	}

	return address, &vault.Plan{
		Name:     "lending.init_pool",
		Strategy: vault.FundThenInit,
		Payer:    authority,
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

// InitLendingPool funds and initializes the pool at ["lending_pool",
// authority, mint]. If initialization fails after funding confirmed, the
// error matches vault.ErrPartiallyProvisioned and ResumeLendingPool can
// finish the operation.
func (c *Client) InitLendingPool(ctx context.Context, authority solana.Signer, accounts *PoolAccounts, params *unityvault.LendingPoolParams) (ed25519.PublicKey, *vault.Result, error) {
	address, plan, err := c.PlanInitLendingPool(authority, accounts, params)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, plan)
	if errors.Is(err, vault.ErrPartiallyProvisioned) {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": "InitLendingPool",
			"pool":   base58.Encode(address),
		}).Warn("lending pool funded but not initialized")
	}
	return address, result, err
}

// ResumeLendingPool sends only the initialization step for a pool that was
// already funded.
func (c *Client) ResumeLendingPool(ctx context.Context, authority solana.Signer, accounts *PoolAccounts, params *unityvault.LendingPoolParams) (*vault.Receipt, error) {
	_, plan, err := c.PlanInitLendingPool(authority, accounts, params)
	if err != nil {
		return nil, err
	}
	return c.orchestrator.Resume(ctx, plan)
}

// PlanCreateLoan derives the loan address and returns the Atomic plan that
// creates it.
func (c *Client) PlanCreateLoan(borrower solana.Signer, pool ed25519.PublicKey, params *unityvault.LoanParams) (ed25519.PublicKey, *vault.Plan, error) {
	program := c.orchestrator.ProgramID()

	address, err := c.loanAddress(pool, borrower.PublicKey())
	if err != nil {
		return nil, nil, err
	}

	ix, err := unityvault.NewCreateLoanInstruction(
		program,
		&unityvault.CreateLoanInstructionAccounts{
			Loan:     address,
			Pool:     pool,
			Borrower: borrower.PublicKey(),
		},
		params,
	)
	if err != nil {
		return nil, nil, err
	}

	return address, &vault.Plan{
		Name:     "lending.create_loan",
		Strategy: vault.Atomic,
		Payer:    borrower,
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

// CreateLoan creates the loan at ["loan", pool, borrower].
func (c *Client) CreateLoan(ctx context.Context, borrower solana.Signer, pool ed25519.PublicKey, params *unityvault.LoanParams) (ed25519.PublicKey, *vault.Receipt, error) {
	address, plan, err := c.PlanCreateLoan(borrower, pool, params)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, plan)
	return address, result.Last(), err
}

// RepayLoan repays the borrower's loan from pool.
func (c *Client) RepayLoan(ctx context.Context, borrower solana.Signer, pool ed25519.PublicKey) (*vault.Receipt, error) {
	loan, err := c.loanAddress(pool, borrower.PublicKey())
	if err != nil {
		return nil, err
	}

	ix, err := unityvault.NewRepayLoanInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.RepayLoanInstructionAccounts{
			Loan:     loan,
			Pool:     pool,
			Borrower: borrower.PublicKey(),
		},
	)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Run(ctx, "lending.repay_loan", borrower, ix)
}

func (c *Client) GetLendingPool(ctx context.Context, address ed25519.PublicKey) (*unityvault.LendingPoolAccount, error) {
	var state unityvault.LendingPoolAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) GetLoan(ctx context.Context, address ed25519.PublicKey) (*unityvault.LoanAccount, error) {
	var state unityvault.LoanAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// PoolState reports the provisioning state of a pool, see
// vault.Reader.ProvisioningState.
func (c *Client) PoolState(ctx context.Context, address ed25519.PublicKey) error {
	return c.orchestrator.Reader().ProvisioningState(ctx, address, unityvault.IsInitialized)
}

func (c *Client) loanAddress(pool, borrower ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, _, err := unityvault.GetLoanAddress(c.orchestrator.ProgramID(), &unityvault.GetLoanAddressArgs{
		Pool:     pool,
		Borrower: borrower,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive loan address")
	}
	return address, nil
}
