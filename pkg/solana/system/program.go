package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana"
)

var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
	// nolint:varcheck,deadcode,unused
	commandCreateAccountWithSeed
	// nolint:varcheck,deadcode,unused
	commandAdvanceNonceAccount
	// nolint:varcheck,deadcode,unused
	commandWithdrawNonceAccount
	// nolint:varcheck,deadcode,unused
	commandInitializeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAuthorizeNonceAccount
	commandAllocate
)

const (
	createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize
	transferDataSize      = 4 + 8
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	return solana.NewInstruction(
		ProgramKey[:],
		createAccountData(owner, lamports, size),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// CreateProgramDerivedAccount is CreateAccount for an address derived from
// owner. The derived address cannot produce a signature, so it is referenced
// as writable only and the runtime authorizes it through the owning program.
func CreateProgramDerivedAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] New derived account
	return solana.NewInstruction(
		ProgramKey[:],
		createAccountData(owner, lamports, size),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
	)
}

func createAccountData(owner ed25519.PublicKey, lamports, size uint64) []byte {
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)
	return data
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	// AddressSigned is false for program derived addresses.
	AddressSigned bool

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := instructionFor(m, index, commandCreateAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:        m.Accounts[i.Accounts[0]],
		Address:       m.Accounts[i.Accounts[1]],
		AddressSigned: m.IsSigner(int(i.Accounts[1])),
	}
	v.Lamports = binary.LittleEndian.Uint64(i.Data[4:])
	v.Size = binary.LittleEndian.Uint64(i.Data[4+8:])
	v.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.Owner, i.Data[4+2*8:])

	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L92-L98
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, transferDataSize)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := instructionFor(m, index, commandTransfer)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != transferDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		From:     m.Accounts[i.Accounts[0]],
		To:       m.Accounts[i.Accounts[1]],
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}

// IsSystemInstruction reports whether the instruction at index targets the
// system program.
func IsSystemInstruction(m solana.Message, index int) bool {
	if index >= len(m.Instructions) {
		return false
	}
	return bytes.Equal(m.Accounts[m.Instructions[index].ProgramIndex], ProgramKey[:])
}

func instructionFor(m solana.Message, index int, command uint32) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], command)
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey[:]) {
		return i, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return i, solana.ErrIncorrectInstruction
	}
	return i, nil
}
