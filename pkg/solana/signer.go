package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// Signer is a signing capability. Callers never need the private key
// material behind it.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(message []byte) ([]byte, error)
}

type keypairSigner struct {
	key ed25519.PrivateKey
}

// NewKeypairSigner returns a Signer backed by an in-process ed25519 key.
func NewKeypairSigner(key ed25519.PrivateKey) (Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid private key size: %d", len(key))
	}
	return &keypairSigner{key: key}, nil
}

// NewRandomSigner generates a fresh key pair, as used for accounts that must
// co-sign their own creation.
func NewRandomSigner() (Signer, error) {
	_, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return &keypairSigner{key: key}, nil
}

func (s *keypairSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

func (s *keypairSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.key, message), nil
}

func (s *keypairSigner) String() string {
	return base58.Encode(s.PublicKey())
}
