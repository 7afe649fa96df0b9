package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// RentSysVar is the Rent sysvar, read by the token program when it
// initializes mints and token accounts.
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = mustDecodeKey("SysvarRent111111111111111111111111111111111")

func mustDecodeKey(s string) ed25519.PublicKey {
	key, err := base58.Decode(s)
	if err != nil || len(key) != ed25519.PublicKeySize {
		panic("invalid key: " + s)
	}
	return key
}
