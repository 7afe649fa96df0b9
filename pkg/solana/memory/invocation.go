package memory

import (
	"bytes"
	"crypto/ed25519"
	"time"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// Invocation is the ledger view handed to a Program for one instruction.
// Writes land in the transaction's staged state.
type Invocation struct {
	Instruction solana.Instruction
	Index       int
	Slot        uint64
	Time        time.Time

	accounts map[string]*solana.AccountInfo
}

// Account returns a copy of the staged account at address.
func (i *Invocation) Account(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	info, ok := i.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, false
	}
	return *cloneAccount(info), true
}

// Put replaces the staged account at address. The address must be
// referenced as writable by the instruction.
func (i *Invocation) Put(address ed25519.PublicKey, info solana.AccountInfo) error {
	meta, ok := i.meta(address)
	if !ok {
		return Fail(solana.InstructionErrorNotEnoughAccountKeys)
	}
	if !meta.IsWritable {
		return Fail(solana.InstructionErrorInvalidArgument)
	}

	i.accounts[string(address)] = cloneAccount(&info)
	return nil
}

// IsSigner reports whether address signed the enclosing transaction.
func (i *Invocation) IsSigner(address ed25519.PublicKey) bool {
	meta, ok := i.meta(address)
	return ok && meta.IsSigner
}

// MinimumBalance is the rent-exempt reserve for size bytes.
func (i *Invocation) MinimumBalance(size uint64) uint64 {
	return MinimumBalance(size)
}

func (i *Invocation) meta(address ed25519.PublicKey) (solana.AccountMeta, bool) {
	for _, m := range i.Instruction.Accounts {
		if bytes.Equal(m.PublicKey, address) {
			return m, true
		}
	}
	return solana.AccountMeta{}, false
}
