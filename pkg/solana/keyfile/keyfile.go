// Package keyfile loads signers from the JSON key files written by
// solana-keygen.
package keyfile

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// Load reads a keygen file and returns a signer for it.
func Load(path string) (solana.Signer, error) {
	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load key file %s", path)
	}
	return solana.NewKeypairSigner(ed25519.PrivateKey(key))
}

// Write stores the private key as a keygen file readable only by the owner.
func Write(path string, key ed25519.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return errors.Errorf("invalid private key size: %d", len(key))
	}

	// keygen files are a JSON array of byte values, not base64.
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "failed to encode key file")
	}
	return os.WriteFile(path, encoded, 0600)
}
