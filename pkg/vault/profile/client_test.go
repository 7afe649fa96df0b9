package profile

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
	"github.com/unity-vault/vault-client/pkg/vault/vaulttest"
)

func setup(t *testing.T) (*vaulttest.Env, *Client) {
	env := vaulttest.NewEnv(t)
	return env, NewClient(env.Orchestrator)
}

func TestProfileLifecycle(t *testing.T) {
	env, client := setup(t)

	_, err := client.GetProfile(context.Background(), env.Payer.PublicKey())
	assert.ErrorIs(t, err, vault.ErrNotFound)

	address, receipt, err := client.CreateProfile(context.Background(), env.Payer, &unityvault.UserProfileParams{
		Username:    "vaulter",
		Email:       "vaulter@example.com",
		SocialLinks: []string{"https://example.com/vaulter"},
	})
	require.NoError(t, err)
	assert.Equal(t, vault.StateConfirmed, receipt.State)

	expected, err := client.Address(env.Payer.PublicKey())
	require.NoError(t, err)
	assert.EqualValues(t, expected, address)

	profile, err := client.GetProfile(context.Background(), env.Payer.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "vaulter", profile.Username)
	assert.Equal(t, []string{"https://example.com/vaulter"}, profile.SocialLinks)
	assert.False(t, profile.TwoFactorEnabled)
	assert.False(t, profile.KycVerified)

	_, err = client.UpdateProfile(context.Background(), env.Payer, &unityvault.UserProfileParams{
		Username: "vaulter",
		Bio:      "likes vaults",
	})
	require.NoError(t, err)

	_, err = client.EnableTwoFactor(context.Background(), env.Payer, "", nil)
	assertCustomError(t, err, vaulttest.ErrorInvalidParams)

	_, err = client.EnableTwoFactor(context.Background(), env.Payer, "secret", []string{"a", "b"})
	require.NoError(t, err)

	_, err = client.VerifyKyc(context.Background(), env.Payer, &unityvault.KycData{
		DocumentType:       "passport",
		DocumentNumber:     "X1234",
		VerificationStatus: true,
	})
	require.NoError(t, err)

	profile, err = client.GetProfile(context.Background(), env.Payer.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "likes vaults", profile.Bio)
	assert.Empty(t, profile.Email)
	assert.True(t, profile.TwoFactorEnabled)
	assert.True(t, profile.KycVerified)
	assert.Equal(t, "passport", profile.Kyc.DocumentType)
}

func TestCreateProfile_Twice(t *testing.T) {
	env, client := setup(t)

	_, _, err := client.CreateProfile(context.Background(), env.Payer, &unityvault.UserProfileParams{Username: "once"})
	require.NoError(t, err)

	_, receipt, err := client.CreateProfile(context.Background(), env.Payer, &unityvault.UserProfileParams{Username: "twice"})
	assert.ErrorIs(t, err, vault.ErrRejected)
	assert.Equal(t, vault.StateRejected, receipt.State)
}

func TestUpdateProfile_Missing(t *testing.T) {
	env, client := setup(t)

	_, err := client.UpdateProfile(context.Background(), env.Payer, &unityvault.UserProfileParams{Username: "ghost"})
	assert.ErrorIs(t, err, vault.ErrRejected)
}

func assertCustomError(t *testing.T, err error, expected solana.CustomError) {
	require.ErrorIs(t, err, vault.ErrRejected)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	require.NotNil(t, txErr.InstructionError().CustomError())
	assert.Equal(t, expected, *txErr.InstructionError().CustomError())
}
