package vault

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana"
)

var (
	// ErrSeedTooLong is returned when a derivation seed exceeds 32 bytes or
	// too many seeds are supplied. No I/O has happened.
	ErrSeedTooLong = solana.ErrSeedTooLong

	// ErrRemoteUnavailable is returned when the RPC endpoint could not be
	// reached after the client's bounded retries.
	ErrRemoteUnavailable = solana.ErrRemoteUnavailable

	// ErrStaleFreshnessToken is returned when the executor no longer
	// recognizes the transaction's recent blockhash.
	ErrStaleFreshnessToken = errors.New("stale freshness token")

	// ErrRejected is returned when a transaction was refused, either before
	// submission, by preflight, or on-chain.
	ErrRejected = errors.New("transaction rejected")

	// ErrTimedOut is returned when a submitted transaction did not reach the
	// configured commitment within the confirmation bound. The transaction
	// may still land.
	ErrTimedOut = errors.New("transaction confirmation timed out")

	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrPartiallyProvisioned is returned when an account was funded but never
	// initialized.
	ErrPartiallyProvisioned = errors.New("account partially provisioned")

	// ErrInvalidPlan is returned when a Plan cannot be assembled.
	ErrInvalidPlan = errors.New("invalid plan")
)

// RejectedError carries the reason a transaction was refused. It matches
// ErrRejected with errors.Is, and the underlying *solana.TransactionError
// (when there is one) with errors.As.
type RejectedError struct {
	Signature solana.Signature
	Err       error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRejected, e.Signature, e.Err)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// PartialProvisionError is returned by a FundThenInit operation whose
// funding step confirmed but whose initialization step failed. The funded
// accounts hold lamports and must be resumed or reclaimed by the caller.
type PartialProvisionError struct {
	Addresses []ed25519.PublicKey
	Funding   *Receipt
	Err       error
}

func (e *PartialProvisionError) Error() string {
	addresses := make([]string, len(e.Addresses))
	for i, address := range e.Addresses {
		addresses[i] = base58.Encode(address)
	}
	return fmt.Sprintf("%s: [%s]: %v", ErrPartiallyProvisioned, strings.Join(addresses, ", "), e.Err)
}

func (e *PartialProvisionError) Is(target error) bool {
	return target == ErrPartiallyProvisioned
}

func (e *PartialProvisionError) Unwrap() error {
	return e.Err
}
