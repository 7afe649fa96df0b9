package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	// MaxSeeds includes the bump seed appended during address search.
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var (
	// ErrSeedTooLong is returned when the seed tuple cannot be used for
	// derivation, either because a seed is too long or there are too many.
	ErrSeedTooLong = errors.New("seed too long")

	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoViableBump     = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// ValidateSeeds checks the seed tuple against network limits without doing
// any hashing. maxCount is the number of caller-provided seeds allowed.
func ValidateSeeds(maxCount int, seeds ...[]byte) error {
	if len(seeds) > maxCount {
		return errors.Wrapf(ErrSeedTooLong, "%d seeds exceeds limit of %d", len(seeds), maxCount)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return errors.Wrapf(ErrSeedTooLong, "seed %d is %d bytes", i, len(s))
		}
	}
	return nil
}

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if err := ValidateSeeds(MaxSeeds, seeds...); err != nil {
		return nil, err
	}

	h := programHashCtor()
	for _, s := range seeds {
		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// Reject the hash if it decodes to a valid compressed Edwards point, since
	// such an address could have a private key.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if IsOnCurve(pub[:]) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// IsOnCurve reports whether the key decodes to a valid compressed Edwards
// point, meaning a private key may exist for it.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var pub [32]byte
	copy(pub[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&pub)
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Seeds are validated up front, so ErrSeedTooLong is returned before any
// hashing is done.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	if err := ValidateSeeds(MaxSeeds-1, seeds...); err != nil {
		return nil, 0, err
	}

	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)

	bumpSeed := []byte{math.MaxUint8}
	candidate[len(seeds)] = bumpSeed
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, candidate...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrNoViableBump
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// DeriveAddress is the address derivation entry point used by the vault
// clients. The result is a pure function of its inputs.
func DeriveAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	return FindProgramAddressAndBump(program, seeds...)
}
