package unityvault

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
	ErrAccountDataTooLarge    = errors.New("account data exceeds account size")
)

// DefaultProgramID is the address the unity-vault program is deployed at on
// local test validators.
var DefaultProgramID = ed25519.PublicKey(mustBase58Decode("89Lei4JF8Ga19BKsk3WUw1q25bchBupzyKyMZtw43KQ3"))

// AccountSize is the fixed data size of every account owned by the program.
const AccountSize = 1024

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
