package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// GenerateSolanaKeys returns n random public keys.
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewRandomSigner returns a signer backed by a fresh key pair.
func NewRandomSigner(t *testing.T) solana.Signer {
	signer, err := solana.NewRandomSigner()
	require.NoError(t, err)
	return signer
}
