package unityvault

import (
	"bytes"
	"crypto/ed25519"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// Key converts an address into the fixed-size form used by account layouts.
func Key(pub ed25519.PublicKey) solanago.PublicKey {
	return solanago.PublicKeyFromBytes(pub)
}

// PublicKey converts a layout key back into an address.
func PublicKey(key solanago.PublicKey) ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), key[:]...)
}

// newInstruction serializes the discriminants followed by the Borsh encoded
// args. A nil args produces a payload that is only the discriminants.
func newInstruction(program ed25519.PublicKey, t InstructionType, args interface{}, accounts ...solana.AccountMeta) (solana.Instruction, error) {
	var offset int
	data := make([]byte, 2)
	putInstructionType(data, t, &offset)

	if args != nil {
		buf := bytes.NewBuffer(data)
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return solana.Instruction{}, errors.Wrapf(err, "failed to encode %s args", t)
		}
		data = buf.Bytes()
	}

	return solana.NewInstruction(program, data, accounts...), nil
}

// decodeInstruction validates the discriminants and account count, then
// decodes the Borsh args into dst when dst is non-nil.
func decodeInstruction(ix solana.Instruction, t InstructionType, numAccounts int, dst interface{}) error {
	actual, err := GetInstructionType(ix.Data)
	if err != nil {
		return err
	}
	if actual != t {
		return errors.Wrapf(ErrInvalidInstructionData, "expected %s, got %s", t, actual)
	}
	if len(ix.Accounts) < numAccounts {
		return errors.Errorf("invalid number of accounts: %d", len(ix.Accounts))
	}

	if dst == nil {
		return nil
	}
	if err := bin.NewBorshDecoder(ix.Data[2:]).Decode(dst); err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	return nil
}

// marshalAccount lays out the discriminant followed by the Borsh encoded
// state, zero padded to AccountSize.
func marshalAccount(kind AccountKind, state interface{}) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, AccountSize))
	buf.WriteByte(byte(kind))

	if err := bin.NewBorshEncoder(buf).Encode(state); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s account", kind)
	}
	if buf.Len() > AccountSize {
		return nil, errors.Wrapf(ErrAccountDataTooLarge, "%s account is %d bytes", kind, buf.Len())
	}

	data := make([]byte, AccountSize)
	copy(data, buf.Bytes())
	return data, nil
}

func unmarshalAccount(data []byte, kind AccountKind, dst interface{}) error {
	if KindOf(data) != kind {
		return errors.Wrapf(ErrInvalidAccountData, "expected %s account, got %s", kind, KindOf(data))
	}
	if err := bin.NewBorshDecoder(data[1:]).Decode(dst); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	return nil
}

func accountMeta(pub ed25519.PublicKey, writable, signer bool) solana.AccountMeta {
	return solana.AccountMeta{
		PublicKey:  pub,
		IsWritable: writable,
		IsSigner:   signer,
	}
}
