package vault

import (
	"fmt"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// State is the position of a transaction in the submission lifecycle.
type State uint8

const (
	StateBuilt State = iota
	StateSigned
	StateSubmitted
	StateConfirmed
	StateRejected
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateRejected || s == StateTimedOut
}

// Receipt records the outcome of one submission attempt. Retries produce
// new receipts.
type Receipt struct {
	Signature solana.Signature
	State     State
	Slot      uint64
	Err       error
}

func (r *Receipt) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s (%s): %v", r.Signature, r.State, r.Err)
	}
	return fmt.Sprintf("%s (%s)", r.Signature, r.State)
}

func (r *Receipt) transition(to State, err error) {
	r.State = to
	r.Err = err
}
