package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var (
	ErrMissingSigner    = errors.New("transaction is missing a required signature")
	ErrUnexpectedSigner = errors.New("signer is not required by the transaction")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy message with the
// payer as the first signer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}

	for _, i := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: i.Program,
			isProgram: true,
		})
		accounts = append(accounts, i.Accounts...)
	}

	// Sort the account meta's based on:
	//   1. Payer is always the first account / signer.
	//   2. All signers are before non-signers.
	//   3. Writable accounts before read-only accounts.
	//   4. Programs last
	accounts = filterUnique(accounts)
	sort.Sort(SortableAccountMeta(accounts))

	var m Message
	for _, account := range accounts {
		pub := account.PublicKey
		if len(pub) == 0 {
			pub = make([]byte, ed25519.PublicKeySize)
		}
		m.Accounts = append(m.Accounts, pub)

		if account.IsSigner {
			m.Header.NumSignatures++

			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, i.Program)),
			Data:         i.Data,
		}

		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(m.Accounts, a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the fee payer signature, which identifies the
// transaction on chain.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// RequiredSigners returns the accounts that must sign, payer first.
func (t *Transaction) RequiredSigners() []ed25519.PublicKey {
	return t.Message.Accounts[:t.Message.Header.NumSignatures]
}

// Sign signs the message with each signer. Signing is order independent, and
// signing with an account that isn't a required signer is an error.
func (t *Transaction) Sign(signers ...Signer) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.PublicKey()
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 || index >= len(t.Signatures) {
			return errors.Wrapf(ErrUnexpectedSigner, "account %s", base58.Encode(pub))
		}

		sig, err := s.Sign(messageBytes)
		if err != nil {
			return errors.Wrapf(err, "failed to sign with %s", base58.Encode(pub))
		}
		if len(sig) != ed25519.SignatureSize {
			return errors.Errorf("invalid signature size from %s: %d", base58.Encode(pub), len(sig))
		}

		copy(t.Signatures[index][:], sig)
	}

	return nil
}

// MissingSigners returns required signers whose signature slot is still
// empty.
func (t *Transaction) MissingSigners() []ed25519.PublicKey {
	var empty Signature
	var missing []ed25519.PublicKey
	for i, pub := range t.RequiredSigners() {
		if i >= len(t.Signatures) || t.Signatures[i] == empty {
			missing = append(missing, pub)
		}
	}
	return missing
}

// VerifySignatures checks every signature against the marshalled message.
func (t *Transaction) VerifySignatures() error {
	if len(t.Signatures) != int(t.Message.Header.NumSignatures) {
		return errors.Errorf("expected %d signatures, got %d", t.Message.Header.NumSignatures, len(t.Signatures))
	}

	messageBytes := t.Message.Marshal()
	for i, pub := range t.RequiredSigners() {
		if !ed25519.Verify(pub, messageBytes, t.Signatures[i][:]) {
			return errors.Wrapf(ErrMissingSigner, "invalid signature for %s", base58.Encode(pub))
		}
	}
	return nil
}

// IsWritable reports whether the account at index is writable in the
// message header layout.
func (m Message) IsWritable(index int) bool {
	numSigned := int(m.Header.NumSignatures)
	if index < numSigned {
		return index < numSigned-int(m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// IsSigner reports whether the account at index is a required signer.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// Instruction rebuilds the i'th instruction from its compiled form.
func (m Message) Instruction(i int) (Instruction, error) {
	if i < 0 || i >= len(m.Instructions) {
		return Instruction{}, errors.Errorf("instruction index out of range: %d", i)
	}

	c := m.Instructions[i]
	if int(c.ProgramIndex) >= len(m.Accounts) {
		return Instruction{}, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}

	ix := Instruction{
		Program: m.Accounts[c.ProgramIndex],
		Data:    c.Data,
	}
	for _, index := range c.Accounts {
		if int(index) >= len(m.Accounts) {
			return Instruction{}, errors.Errorf("account index out of range: %d", index)
		}
		ix.Accounts = append(ix.Accounts, AccountMeta{
			PublicKey:  m.Accounts[index],
			IsSigner:   m.IsSigner(int(index)),
			IsWritable: m.IsWritable(int(index)),
		})
	}
	return ix, nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("    NumReadOnlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString(fmt.Sprintf("  RecentBlockhash: %s\n", t.Message.RecentBlockhash))
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	return sb.String()
}

func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for i := range accounts {
		for j := range filtered {
			// Repeated accounts promote permissions rather than being listed
			// twice.
			if bytes.Equal(accounts[i].PublicKey, filtered[j].PublicKey) {
				if accounts[i].IsSigner {
					filtered[j].IsSigner = true
				}
				if accounts[i].IsWritable {
					filtered[j].IsWritable = true
				}
				if accounts[i].isPayer {
					filtered[j].isPayer = true
				}

				goto next
			}
		}

		filtered = append(filtered, accounts[i])
	next:
	}

	return filtered
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
