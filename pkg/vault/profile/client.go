// Package profile manages the user profile bound to a wallet.
package profile

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

type Client struct {
	log          *logrus.Entry
	orchestrator *vault.Orchestrator
}

func NewClient(orchestrator *vault.Orchestrator) *Client {
	return &Client{
		log:          logrus.StandardLogger().WithField("type", "vault/profile"),
		orchestrator: orchestrator,
	}
}

// Address returns the profile address of wallet, ["user_profile", wallet].
func (c *Client) Address(wallet ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, _, err := unityvault.GetUserProfileAddress(c.orchestrator.ProgramID(), &unityvault.GetUserProfileAddressArgs{
		Wallet: wallet,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive profile address")
	}
	return address, nil
}

func (c *Client) CreateProfile(ctx context.Context, wallet solana.Signer, params *unityvault.UserProfileParams) (ed25519.PublicKey, *vault.Receipt, error) {
	program := c.orchestrator.ProgramID()

	address, err := c.Address(wallet.PublicKey())
	if err != nil {
		return nil, nil, err
	}

	ix, err := unityvault.NewCreateUserProfileInstruction(
		program,
		&unityvault.CreateUserProfileInstructionAccounts{
			Profile: address,
			Wallet:  wallet.PublicKey(),
		},
		params,
	)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, &vault.Plan{
		Name:     "profile.create",
		Strategy: vault.Atomic,
		Payer:    wallet,
		Provisions: []vault.Provision{
			{
				Address: address,
				Size:    unityvault.AccountSize,
				Owner:   program,
			},
		},
		Instructions: []solana.Instruction{ix},
	})
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method":  "CreateProfile",
			"profile": base58.Encode(address),
		}).Info("failure creating profile")
	}
	return address, result.Last(), err
}

func (c *Client) UpdateProfile(ctx context.Context, wallet solana.Signer, params *unityvault.UserProfileParams) (*vault.Receipt, error) {
	accounts, err := c.accounts(wallet)
	if err != nil {
		return nil, err
	}

	ix, err := unityvault.NewUpdateUserProfileInstruction(c.orchestrator.ProgramID(), accounts, params)
	if err != nil {
		return nil, err
	}
	return c.orchestrator.Run(ctx, "profile.update", wallet, ix)
}

func (c *Client) EnableTwoFactor(ctx context.Context, wallet solana.Signer, secret string, backupCodes []string) (*vault.Receipt, error) {
	accounts, err := c.accounts(wallet)
	if err != nil {
		return nil, err
	}

	ix, err := unityvault.NewEnableTwoFactorInstruction(
		c.orchestrator.ProgramID(),
		accounts,
		&unityvault.EnableTwoFactorInstructionArgs{
			Secret:      secret,
			BackupCodes: backupCodes,
		},
	)
	if err != nil {
		return nil, err
	}
	return c.orchestrator.Run(ctx, "profile.enable_two_factor", wallet, ix)
}

func (c *Client) VerifyKyc(ctx context.Context, wallet solana.Signer, kyc *unityvault.KycData) (*vault.Receipt, error) {
	accounts, err := c.accounts(wallet)
	if err != nil {
		return nil, err
	}

	ix, err := unityvault.NewVerifyKycInstruction(c.orchestrator.ProgramID(), accounts, kyc)
	if err != nil {
		return nil, err
	}
	return c.orchestrator.Run(ctx, "profile.verify_kyc", wallet, ix)
}

// GetProfile returns the profile of wallet.
func (c *Client) GetProfile(ctx context.Context, wallet ed25519.PublicKey) (*unityvault.UserProfileAccount, error) {
	address, err := c.Address(wallet)
	if err != nil {
		return nil, err
	}

	var state unityvault.UserProfileAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) accounts(wallet solana.Signer) (*unityvault.ProfileInstructionAccounts, error) {
	address, err := c.Address(wallet.PublicKey())
	if err != nil {
		return nil, err
	}
	return &unityvault.ProfileInstructionAccounts{
		Profile: address,
		Wallet:  wallet.PublicKey(),
	}, nil
}
