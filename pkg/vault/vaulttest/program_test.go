package vaulttest

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
)

func requireInstructionError(t *testing.T, err error) *solana.InstructionError {
	require.ErrorIs(t, err, vault.ErrRejected)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	return txErr.InstructionError()
}

func TestProgram_WrongAddress(t *testing.T) {
	env := NewEnv(t)
	program := env.Orchestrator.ProgramID()

	// Derived for a different name than the one in the instruction.
	address, _, err := unityvault.GetCommunityAddress(program, &unityvault.GetCommunityAddressArgs{
		Owner: env.Payer.PublicKey(),
		Name:  "other",
	})
	require.NoError(t, err)

	ix, err := unityvault.NewCreateCommunityInstruction(
		program,
		&unityvault.CreateCommunityInstructionAccounts{Community: address, Owner: env.Payer.PublicKey()},
		&unityvault.CommunityParams{Name: "name"},
	)
	require.NoError(t, err)

	_, err = env.Orchestrator.Execute(context.Background(), &vault.Plan{
		Strategy:     vault.Atomic,
		Payer:        env.Payer,
		Provisions:   []vault.Provision{{Address: address, Size: unityvault.AccountSize, Owner: program}},
		Instructions: []solana.Instruction{ix},
	})
	ixErr := requireInstructionError(t, err)
	assert.Equal(t, 1, ixErr.Index)
	assert.Equal(t, solana.InstructionErrorInvalidSeeds, ixErr.ErrorKey())
}

func TestProgram_InitializeRequiresProvisioning(t *testing.T) {
	env := NewEnv(t)
	program := env.Orchestrator.ProgramID()

	address, _, err := unityvault.GetCommunityAddress(program, &unityvault.GetCommunityAddressArgs{
		Owner: env.Payer.PublicKey(),
		Name:  "unfunded",
	})
	require.NoError(t, err)

	ix, err := unityvault.NewCreateCommunityInstruction(
		program,
		&unityvault.CreateCommunityInstructionAccounts{Community: address, Owner: env.Payer.PublicKey()},
		&unityvault.CommunityParams{Name: "unfunded"},
	)
	require.NoError(t, err)

	_, err = env.Orchestrator.Run(context.Background(), "unfunded", env.Payer, ix)
	ixErr := requireInstructionError(t, err)
	require.NotNil(t, ixErr.CustomError())
	assert.Equal(t, ErrorNotProvisioned, *ixErr.CustomError())

	// A transfer short of the reserve is not enough either.
	_, err = env.Orchestrator.Run(context.Background(), "underfunded", env.Payer,
		system.Transfer(env.Payer.PublicKey(), address, env.Reserve()-1),
		ix,
	)
	ixErr = requireInstructionError(t, err)
	require.NotNil(t, ixErr.CustomError())
	assert.Equal(t, ErrorInsufficientReserve, *ixErr.CustomError())
}

func TestProgram_Rejection(t *testing.T) {
	env := NewEnv(t, WithRejection(unityvault.InstructionTypeCreateUserProfile, ErrorUnauthorized))
	program := env.Orchestrator.ProgramID()

	address, _, err := unityvault.GetUserProfileAddress(program, &unityvault.GetUserProfileAddressArgs{
		Wallet: env.Payer.PublicKey(),
	})
	require.NoError(t, err)

	ix, err := unityvault.NewCreateUserProfileInstruction(
		program,
		&unityvault.CreateUserProfileInstructionAccounts{Profile: address, Wallet: env.Payer.PublicKey()},
		&unityvault.UserProfileParams{Username: "rejected"},
	)
	require.NoError(t, err)

	_, err = env.Orchestrator.Execute(context.Background(), &vault.Plan{
		Strategy:     vault.Atomic,
		Payer:        env.Payer,
		Provisions:   []vault.Provision{{Address: address, Size: unityvault.AccountSize, Owner: program}},
		Instructions: []solana.Instruction{ix},
	})
	ixErr := requireInstructionError(t, err)
	require.NotNil(t, ixErr.CustomError())
	assert.Equal(t, ErrorUnauthorized, *ixErr.CustomError())
}

func TestProgram_UnknownInstruction(t *testing.T) {
	env := NewEnv(t)

	_, err := env.Orchestrator.Run(context.Background(), "garbage", env.Payer, solana.NewInstruction(
		env.Orchestrator.ProgramID(),
		[]byte{0xff, 0xff},
		solana.NewAccountMeta(env.Payer.PublicKey(), true),
	))
	ixErr := requireInstructionError(t, err)
	assert.Equal(t, solana.InstructionErrorInvalidInstructionData, ixErr.ErrorKey())
}
