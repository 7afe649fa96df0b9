package vault

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
)

// Decoder is implemented by program account layouts.
type Decoder interface {
	Unmarshal(data []byte) error
}

// Reader serves account read paths. It never mutates state.
type Reader struct {
	log        *logrus.Entry
	client     solana.Client
	commitment solana.Commitment
}

func NewReader(client solana.Client, commitment solana.Commitment) *Reader {
	return &Reader{
		log:        logrus.StandardLogger().WithField("type", "vault/reader"),
		client:     client,
		commitment: commitment,
	}
}

// GetAccount returns the account at address, or ErrNotFound.
func (r *Reader) GetAccount(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	info, err := r.client.GetAccountInfo(ctx, address, r.commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, errors.Wrap(ErrNotFound, base58.Encode(address))
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get account %s", base58.Encode(address))
	}
	return &info, nil
}

// ListProgramAccounts returns every account owned by program. Owner is the
// only criterion, so the result mixes account kinds.
func (r *Reader) ListProgramAccounts(ctx context.Context, program ed25519.PublicKey) ([]solana.KeyedAccount, error) {
	accounts, err := r.client.GetProgramAccounts(ctx, program, r.commitment)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list accounts of %s", base58.Encode(program))
	}

	r.log.WithFields(logrus.Fields{
		"method":  "ListProgramAccounts",
		"program": base58.Encode(program),
		"count":   len(accounts),
	}).Trace("listed program accounts")
	return accounts, nil
}

// ProvisioningState reports nil for an initialized account, ErrNotFound for
// a missing one, and ErrPartiallyProvisioned for a derived address that
// holds lamports without having been initialized. A funded key-pair address
// such as a wallet is never partially provisioned.
func (r *Reader) ProvisioningState(ctx context.Context, address ed25519.PublicKey, isInitialized func(data []byte) bool) error {
	info, err := r.GetAccount(ctx, address)
	if err != nil {
		return err
	}

	if isInitialized(info.Data) {
		return nil
	}
	if isPendingInit(address, info) {
		return errors.Wrapf(ErrPartiallyProvisioned, "%s holds %d lamports", base58.Encode(address), info.Lamports)
	}
	if info.Lamports > 0 {
		return errors.Wrapf(unityvault.ErrInvalidAccountData, "%s is not a program account", base58.Encode(address))
	}
	return errors.Wrap(ErrNotFound, base58.Encode(address))
}

// GetProgramState loads a unity-vault account owned by program into dst. A
// derived address that is funded but not yet initialized yields
// ErrPartiallyProvisioned.
func (r *Reader) GetProgramState(ctx context.Context, program, address ed25519.PublicKey, dst Decoder) error {
	info, err := r.GetAccount(ctx, address)
	if err != nil {
		return err
	}

	if !unityvault.IsInitialized(info.Data) || !bytes.Equal(info.Owner, program) {
		if isPendingInit(address, info) && unityvault.KindOf(info.Data) == unityvault.AccountKindUninitialized {
			return errors.Wrapf(ErrPartiallyProvisioned, "%s holds %d lamports", base58.Encode(address), info.Lamports)
		}
		return errors.Wrapf(unityvault.ErrInvalidAccountData, "%s is not a program account", base58.Encode(address))
	}

	return dst.Unmarshal(info.Data)
}

// isPendingInit reports whether address looks like a funded derived account
// awaiting initialization. Derived addresses are off the curve, which keeps
// funded wallets out.
func isPendingInit(address ed25519.PublicKey, info *solana.AccountInfo) bool {
	return info.Lamports > 0 && !solana.IsOnCurve(address)
}
