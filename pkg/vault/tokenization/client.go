// Package tokenization creates tokens and moves them between token
// accounts.
package tokenization

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/token"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
)

// Token holds the addresses created for a new token.
type Token struct {
	TokenInfo    ed25519.PublicKey
	Mint         ed25519.PublicKey
	TokenAccount ed25519.PublicKey
}

type Client struct {
	log          *logrus.Entry
	orchestrator *vault.Orchestrator
}

func NewClient(orchestrator *vault.Orchestrator) *Client {
	return &Client{
		log:          logrus.StandardLogger().WithField("type", "vault/tokenization"),
		orchestrator: orchestrator,
	}
}

// PlanCreateToken returns the FundThenInit plan for a new token. The mint
// and token account are fresh key pairs that co-sign their creation in the
// funding step, which also funds the ["token_info", creator, mint] address.
func (c *Client) PlanCreateToken(creator, mint, tokenAccount solana.Signer, params *unityvault.TokenParams) (*Token, *vault.Plan, error) {
	program := c.orchestrator.ProgramID()

	tokenInfo, _, err := unityvault.GetTokenInfoAddress(program, &unityvault.GetTokenInfoAddressArgs{
		Creator: creator.PublicKey(),
		Mint:    mint.PublicKey(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive token info address")
	}

	created := &Token{
		TokenInfo:    tokenInfo,
		Mint:         mint.PublicKey(),
		TokenAccount: tokenAccount.PublicKey(),
	}

	ix, err := c.createTokenInstruction(creator.PublicKey(), created, params)
	if err != nil {
		return nil, nil, err
	}

	return created, &vault.Plan{
		Name:     "tokenization.create_token",
		Strategy: vault.FundThenInit,
		Payer:    creator,
		Provisions: []vault.Provision{
			{
				Address: created.Mint,
				Size:    token.MintSize,
				Owner:   token.ProgramKey,
				Signer:  mint,
			},
			{
				Address: created.TokenAccount,
				Size:    token.AccountSize,
				Owner:   token.ProgramKey,
				Signer:  tokenAccount,
			},
			{
				Address: created.TokenInfo,
				Size:    unityvault.AccountSize,
				Owner:   program,
			},
		},
		Instructions: []solana.Instruction{ix},
	}, nil
}

func (c *Client) createTokenInstruction(creator ed25519.PublicKey, created *Token, params *unityvault.TokenParams) (solana.Instruction, error) {
	return unityvault.NewCreateTokenInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.CreateTokenInstructionAccounts{
			TokenInfo:    created.TokenInfo,
			Mint:         created.Mint,
			TokenAccount: created.TokenAccount,
			Creator:      creator,
		},
		params,
	)
}

// CreateToken creates a token whose whole supply is held by the creator's
// new token account.
func (c *Client) CreateToken(ctx context.Context, creator solana.Signer, params *unityvault.TokenParams) (*Token, *vault.Result, error) {
	mint, err := solana.NewRandomSigner()
	if err != nil {
		return nil, nil, err
	}
	tokenAccount, err := solana.NewRandomSigner()
	if err != nil {
		return nil, nil, err
	}

	created, plan, err := c.PlanCreateToken(creator, mint, tokenAccount, params)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, plan)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": "CreateToken",
			"mint":   base58.Encode(created.Mint),
		}).Info("failure creating token")
	}
	return created, result, err
}

// ResumeCreateToken sends only the initialization step for a token whose
// accounts were funded by CreateToken. The mint and token account do not
// sign this step, so their public keys are enough.
func (c *Client) ResumeCreateToken(ctx context.Context, creator solana.Signer, created *Token, params *unityvault.TokenParams) (*vault.Receipt, error) {
	tokenInfo, _, err := unityvault.GetTokenInfoAddress(c.orchestrator.ProgramID(), &unityvault.GetTokenInfoAddressArgs{
		Creator: creator.PublicKey(),
		Mint:    created.Mint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive token info address")
	}
	if !bytes.Equal(tokenInfo, created.TokenInfo) {
		return nil, errors.Wrapf(vault.ErrInvalidPlan, "token info %s is not derived from creator and mint", base58.Encode(created.TokenInfo))
	}

	ix, err := c.createTokenInstruction(creator.PublicKey(), created, params)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Resume(ctx, &vault.Plan{
		Name:         "tokenization.create_token",
		Strategy:     vault.FundThenInit,
		Payer:        creator,
		Instructions: []solana.Instruction{ix},
	})
}

// TransferTokens moves amount from the owner's token account to the
// recipient's.
func (c *Client) TransferTokens(ctx context.Context, owner solana.Signer, from, to, recipient ed25519.PublicKey, amount uint64) (*vault.Receipt, error) {
	ix, err := unityvault.NewTransferTokensInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.TransferTokensInstructionAccounts{
			From:      from,
			To:        to,
			Owner:     owner.PublicKey(),
			Recipient: recipient,
		},
		&unityvault.TokenAmountInstructionArgs{
			Amount: amount,
		},
	)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Run(ctx, "tokenization.transfer", owner, ix)
}

func (c *Client) BurnTokens(ctx context.Context, owner solana.Signer, tokenAccount ed25519.PublicKey, amount uint64) (*vault.Receipt, error) {
	ix, err := unityvault.NewBurnTokensInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.BurnTokensInstructionAccounts{
			TokenAccount: tokenAccount,
			Owner:        owner.PublicKey(),
		},
		&unityvault.TokenAmountInstructionArgs{
			Amount: amount,
		},
	)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Run(ctx, "tokenization.burn", owner, ix)
}

func (c *Client) GetTokenInfo(ctx context.Context, address ed25519.PublicKey) (*unityvault.TokenInfoAccount, error) {
	var state unityvault.TokenInfoAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) GetMint(ctx context.Context, address ed25519.PublicKey) (*token.Mint, error) {
	data, err := c.getTokenProgramData(ctx, address)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(data) || !mint.IsInitialized {
		return nil, errors.Errorf("%s is not an initialized mint", base58.Encode(address))
	}
	return &mint, nil
}

func (c *Client) GetTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	data, err := c.getTokenProgramData(ctx, address)
	if err != nil {
		return nil, err
	}

	var account token.Account
	if !account.Unmarshal(data) || account.State == token.AccountStateUninitialized {
		return nil, errors.Errorf("%s is not an initialized token account", base58.Encode(address))
	}
	return &account, nil
}

func (c *Client) getTokenProgramData(ctx context.Context, address ed25519.PublicKey) ([]byte, error) {
	info, err := c.orchestrator.Reader().GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, token.ProgramKey) {
		return nil, errors.Wrapf(solana.ErrIncorrectProgram, "%s is not owned by the token program", base58.Encode(address))
	}
	return info.Data, nil
}
