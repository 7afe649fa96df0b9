// Package community creates and manages communities.
package community

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

// Community is a decoded community account and its address.
type Community struct {
	Address ed25519.PublicKey
	State   *unityvault.CommunityAccount
}

type Client struct {
	log          *logrus.Entry
	orchestrator *vault.Orchestrator
}

func NewClient(orchestrator *vault.Orchestrator) *Client {
	return &Client{
		log:          logrus.StandardLogger().WithField("type", "vault/community"),
		orchestrator: orchestrator,
	}
}

// PlanCreate derives the community address and returns the Atomic plan that
// creates it. No I/O is performed.
func (c *Client) PlanCreate(owner solana.Signer, params *unityvault.CommunityParams) (ed25519.PublicKey, *vault.Plan, error) {
	program := c.orchestrator.ProgramID()

	address, _, err := unityvault.GetCommunityAddress(program, &unityvault.GetCommunityAddressArgs{
		Owner: owner.PublicKey(),
		Name:  params.Name,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive community address")
	}

	ix, err := unityvault.NewCreateCommunityInstruction(
		program,
		&unityvault.CreateCommunityInstructionAccounts{
			Community: address,
			Owner:     owner.PublicKey(),
		},
		params,
	)
	if err != nil {
		return nil, nil, err
	}

	return address, &vault.Plan{
		Name:     "community.create",
		Strategy: vault.Atomic,
		Payer:    owner,
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

// CreateCommunity creates the community at ["community", owner, name] in a
// single transaction.
func (c *Client) CreateCommunity(ctx context.Context, owner solana.Signer, params *unityvault.CommunityParams) (ed25519.PublicKey, *vault.Receipt, error) {
	address, plan, err := c.PlanCreate(owner, params)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.orchestrator.Execute(ctx, plan)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method":    "CreateCommunity",
			"community": base58.Encode(address),
		}).Info("failure creating community")
		return address, result.Last(), err
	}
	return address, result.Receipt, nil
}

func (c *Client) UpdateCommunity(ctx context.Context, owner solana.Signer, community ed25519.PublicKey, params *unityvault.CommunityParams) (*vault.Receipt, error) {
	ix, err := unityvault.NewUpdateCommunityInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.UpdateCommunityInstructionAccounts{
			Community: community,
			Owner:     owner.PublicKey(),
		},
		params,
	)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Run(ctx, "community.update", owner, ix)
}

func (c *Client) SuspendCommunity(ctx context.Context, owner solana.Signer, community ed25519.PublicKey) (*vault.Receipt, error) {
	ix, err := unityvault.NewSuspendCommunityInstruction(
		c.orchestrator.ProgramID(),
		&unityvault.SuspendCommunityInstructionAccounts{
			Community: community,
			Owner:     owner.PublicKey(),
		},
	)
	if err != nil {
		return nil, err
	}

	return c.orchestrator.Run(ctx, "community.suspend", owner, ix)
}

func (c *Client) GetCommunity(ctx context.Context, address ed25519.PublicKey) (*unityvault.CommunityAccount, error) {
	var state unityvault.CommunityAccount
	if err := c.orchestrator.Reader().GetProgramState(ctx, c.orchestrator.ProgramID(), address, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ListCommunities returns every community, or only those of owner when it
// is set.
func (c *Client) ListCommunities(ctx context.Context, owner ed25519.PublicKey) ([]*Community, error) {
	accounts, err := c.orchestrator.Reader().ListProgramAccounts(ctx, c.orchestrator.ProgramID())
	if err != nil {
		return nil, err
	}

	var res []*Community
	for _, account := range unityvault.FilterByKind(accounts, unityvault.AccountKindCommunity) {
		var state unityvault.CommunityAccount
		if err := state.Unmarshal(account.Account.Data); err != nil {
			return nil, errors.Wrapf(err, "invalid community %s", base58.Encode(account.PublicKey))
		}
		if owner != nil && !bytes.Equal(state.Owner[:], owner) {
			continue
		}

		res = append(res, &Community{
			Address: account.PublicKey,
			State:   &state,
		})
	}
	return res, nil
}
