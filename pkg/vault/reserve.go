package vault

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
)

// ReserveQuote is the rent-exempt balance required for an account of Size
// bytes. Quotes are fetched per account creation and never cached.
type ReserveQuote struct {
	Size     uint64
	Lamports uint64
}

// ReserveCalculator quotes rent-exempt reserves from the remote executor.
type ReserveCalculator struct {
	log    *logrus.Entry
	client solana.Client
}

func NewReserveCalculator(client solana.Client) *ReserveCalculator {
	return &ReserveCalculator{
		log:    logrus.StandardLogger().WithField("type", "vault/reserve"),
		client: client,
	}
}

// MinimumBalance performs exactly one remote read.
func (r *ReserveCalculator) MinimumBalance(ctx context.Context, size uint64) (ReserveQuote, error) {
	lamports, err := r.client.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"method": "MinimumBalance",
			"size":   size,
		}).Debug("failure quoting reserve")
		return ReserveQuote{}, errors.Wrapf(err, "failed to quote reserve for %d bytes", size)
	}

	return ReserveQuote{
		Size:     size,
		Lamports: lamports,
	}, nil
}
