package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana/shortvec"
)

// ErrTransactionTooLarge is returned for transactions that do not fit in a
// single packet.
var ErrTransactionTooLarge = errors.Errorf("transaction exceeds %d bytes", MaxTransactionSize)

// CheckSize returns ErrTransactionTooLarge if the encoded transaction would
// not fit in a packet. Anything that fits has u16 length prefixes, so Marshal
// is exact for every transaction that passes.
func (t Transaction) CheckSize() error {
	if size := t.Size(); size > MaxTransactionSize {
		return errors.Wrapf(ErrTransactionTooLarge, "encodes to %d bytes", size)
	}
	return nil
}

// Marshal encodes the transaction in the legacy wire format. The encoding is
// only valid for transactions that pass CheckSize.
func (t Transaction) Marshal() []byte {
	b, _ := shortvec.AppendLen(make([]byte, 0, MaxTransactionSize), len(t.Signatures))
	for _, s := range t.Signatures {
		b = append(b, s[:]...)
	}
	return t.Message.appendTo(b)
}

// Size is the encoded size of the transaction in bytes.
func (t Transaction) Size() int {
	return shortvec.Size(len(t.Signatures)) + len(t.Signatures)*ed25519.SignatureSize + t.Message.size()
}

func (t *Transaction) Unmarshal(b []byte) error {
	r := bytes.NewReader(b)

	sigLen, err := shortvec.ReadLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := range t.Signatures {
		if _, err = io.ReadFull(r, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(b[len(b)-r.Len():])
}

// Marshal encodes the legacy message. These are the bytes that get signed.
func (m Message) Marshal() []byte {
	return m.appendTo(make([]byte, 0, m.size()))
}

func (m Message) appendTo(b []byte) []byte {
	b = append(b, m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly)

	b, _ = shortvec.AppendLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		b = append(b, a...)
	}

	b = append(b, m.RecentBlockhash[:]...)

	b, _ = shortvec.AppendLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		b = append(b, i.ProgramIndex)

		b, _ = shortvec.AppendLen(b, len(i.Accounts))
		b = append(b, i.Accounts...)

		b, _ = shortvec.AppendLen(b, len(i.Data))
		b = append(b, i.Data...)
	}

	return b
}

func (m Message) size() int {
	size := 3 + shortvec.Size(len(m.Accounts)) + len(m.Accounts)*ed25519.PublicKeySize + len(m.RecentBlockhash)
	size += shortvec.Size(len(m.Instructions))
	for _, i := range m.Instructions {
		size += 1 + shortvec.Size(len(i.Accounts)) + len(i.Accounts) + shortvec.Size(len(i.Data)) + len(i.Data)
	}
	return size
}

func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0] > 127 {
		return errors.New("versioned messages not supported")
	}

	r := bytes.NewReader(b)

	var header [3]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	accountLen, err := shortvec.ReadLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := range m.Accounts {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(r, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	if _, err = io.ReadFull(r, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent blockhash")
	}

	instructionLen, err := shortvec.ReadLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := range m.Instructions {
		if m.Instructions[i], err = readCompiledInstruction(r, len(m.Accounts)); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d]", i)
		}
	}

	return nil
}

func readCompiledInstruction(r *bytes.Reader, numAccounts int) (c CompiledInstruction, err error) {
	if c.ProgramIndex, err = r.ReadByte(); err != nil {
		return c, errors.Wrap(err, "program index")
	}
	if int(c.ProgramIndex) >= numAccounts {
		return c, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}

	accountLen, err := shortvec.ReadLen(r)
	if err != nil {
		return c, errors.Wrap(err, "account len")
	}
	c.Accounts = make([]byte, accountLen)
	if _, err = io.ReadFull(r, c.Accounts); err != nil {
		return c, errors.Wrap(err, "accounts")
	}
	for _, index := range c.Accounts {
		if int(index) >= numAccounts {
			return c, errors.Errorf("account index out of range: %d", index)
		}
	}

	dataLen, err := shortvec.ReadLen(r)
	if err != nil {
		return c, errors.Wrap(err, "data len")
	}
	c.Data = make([]byte, dataLen)
	if _, err = io.ReadFull(r, c.Data); err != nil {
		return c, errors.Wrap(err, "data")
	}

	return c, nil
}
