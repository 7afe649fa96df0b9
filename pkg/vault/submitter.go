package vault

import (
	"context"
	"crypto/ed25519"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/metrics"
	"github.com/unity-vault/vault-client/pkg/retry"
	"github.com/unity-vault/vault-client/pkg/retry/backoff"
	"github.com/unity-vault/vault-client/pkg/solana"
)

const (
	submitMetricName       = "Vault/Submit"
	confirmationMetricName = "Vault/ConfirmationLatency"
)

var errNotConfirmed = errors.New("transaction not yet confirmed")

// Submitter drives a transaction through Built -> Signed -> Submitted ->
// {Confirmed | Rejected | TimedOut}.
type Submitter struct {
	log          *logrus.Entry
	client       solana.Client
	commitment   solana.Commitment
	timeout      time.Duration
	pollInterval time.Duration
}

func NewSubmitter(client solana.Client, c Config) *Submitter {
	return &Submitter{
		log:          logrus.StandardLogger().WithField("type", "vault/submitter"),
		client:       client,
		commitment:   c.Commitment,
		timeout:      c.ConfirmationTimeout,
		pollInterval: c.PollInterval,
	}
}

// Submit signs txn, sends it, and waits for it to reach the configured
// commitment. The returned receipt is never nil and records the last state
// reached. Cancelling ctx abandons the wait without retracting a transaction
// that was already sent.
func (s *Submitter) Submit(ctx context.Context, txn solana.Transaction, signers ...solana.Signer) (*Receipt, error) {
	receipt := &Receipt{State: StateBuilt}

	log := s.log.WithField("method", "Submit")

	if err := txn.CheckSize(); err != nil {
		err = &RejectedError{Err: err}
		receipt.transition(StateRejected, err)
		return receipt, err
	}

	if err := txn.Sign(signers...); err != nil {
		err = &RejectedError{Err: err}
		receipt.transition(StateRejected, err)
		return receipt, err
	}
	receipt.Signature = txn.Signatures[0]
	log = log.WithField("signature", receipt.Signature.String())

	if missing := txn.MissingSigners(); len(missing) > 0 {
		err := &RejectedError{
			Signature: receipt.Signature,
			Err:       errors.Wrap(solana.ErrMissingSigner, encodeKeys(missing)),
		}
		receipt.transition(StateRejected, err)
		return receipt, err
	}
	receipt.transition(StateSigned, nil)

	metrics.RecordCount(ctx, submitMetricName, 1)

	if _, err := s.client.SubmitTransaction(ctx, txn, s.commitment); err != nil {
		err = s.classifySubmitError(receipt.Signature, err)
		if errors.Is(err, ErrStaleFreshnessToken) || errors.Is(err, ErrRejected) {
			receipt.transition(StateRejected, err)
		}

		log.WithError(err).Debug("transaction refused")
		return receipt, err
	}
	receipt.transition(StateSubmitted, nil)
	log.Trace("transaction submitted")

	start := time.Now()
	err := s.awaitConfirmation(ctx, receipt)
	if err == nil {
		metrics.RecordDuration(ctx, confirmationMetricName, time.Since(start))
		log.WithField("slot", receipt.Slot).Debug("transaction confirmed")
	} else {
		log.WithError(err).WithField("state", receipt.State.String()).Debug("transaction not confirmed")
	}
	return receipt, err
}

func (s *Submitter) classifySubmitError(sig solana.Signature, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, solana.ErrRemoteUnavailable) {
		return err
	}

	var txErr *solana.TransactionError
	if errors.As(err, &txErr) && txErr.IsBlockhashNotFound() {
		return errors.Wrap(ErrStaleFreshnessToken, sig.String())
	}

	return &RejectedError{
		Signature: sig,
		Err:       err,
	}
}

func (s *Submitter) awaitConfirmation(ctx context.Context, receipt *Receipt) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var status *solana.SignatureStatus
	_, err := retry.Retry(
		waitCtx,
		func() error {
			statuses, err := s.client.GetSignatureStatuses(waitCtx, []solana.Signature{receipt.Signature})
			if err != nil {
				return err
			}
			if len(statuses) == 0 || statuses[0] == nil {
				return errNotConfirmed
			}

			status = statuses[0]
			if status.ErrorResult != nil || status.Reached(s.commitment) {
				return nil
			}
			return errNotConfirmed
		},
		retry.RetriableErrors(errNotConfirmed, solana.ErrRemoteUnavailable),
		retry.Backoff(backoff.Constant(s.pollInterval), s.pollInterval),
	)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	switch {
	case err == nil && status.ErrorResult != nil:
		rejected := &RejectedError{
			Signature: receipt.Signature,
			Err:       status.ErrorResult,
		}
		receipt.Slot = status.Slot
		receipt.transition(StateRejected, rejected)
		return rejected
	case err == nil:
		receipt.Slot = status.Slot
		receipt.transition(StateConfirmed, nil)
		return nil
	case waitCtx.Err() != nil:
		timedOut := errors.Wrapf(ErrTimedOut, "%s not %s within %v", receipt.Signature, s.commitment.Commitment, s.timeout)
		receipt.transition(StateTimedOut, timedOut)
		return timedOut
	default:
		return errors.Wrap(err, "failed to poll signature status")
	}
}

func encodeKeys(keys []ed25519.PublicKey) string {
	encoded := make([]string, len(keys))
	for i, key := range keys {
		encoded[i] = base58.Encode(key)
	}
	return strings.Join(encoded, ", ")
}
