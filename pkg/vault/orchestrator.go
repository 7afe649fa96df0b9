package vault

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/unity-vault/vault-client/pkg/metrics"
	"github.com/unity-vault/vault-client/pkg/retry"
	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
)

const (
	metricsStructName = "vault.orchestrator"

	staleRetryMetricName = "Vault/StaleFreshnessTokenRetry"

	partialProvisionEventName = "VaultPartialProvision"
)

// Result holds the receipts of an executed Plan. Funding is only set for
// FundThenInit plans.
type Result struct {
	Funding *Receipt
	Receipt *Receipt
}

// Last returns the receipt of the last step that was attempted. It is safe
// to call on a nil Result.
func (r *Result) Last() *Receipt {
	if r == nil {
		return nil
	}
	if r.Receipt != nil {
		return r.Receipt
	}
	return r.Funding
}

// Orchestrator executes Plans end to end: assemble, sign, submit and
// confirm. It holds no per-operation state and is safe for concurrent use.
type Orchestrator struct {
	log  *logrus.Entry
	conf Config

	client    solana.Client
	reserve   *ReserveCalculator
	assembler *Assembler
	submitter *Submitter
	reader    *Reader
}

func NewOrchestrator(client solana.Client, c Config) (*Orchestrator, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	reserve := NewReserveCalculator(client)
	return &Orchestrator{
		log:       logrus.StandardLogger().WithField("type", "vault/orchestrator"),
		conf:      c,
		client:    client,
		reserve:   reserve,
		assembler: NewAssembler(client, reserve),
		submitter: NewSubmitter(client, c),
		reader:    NewReader(client, c.Commitment),
	}, nil
}

// ProgramID is the unity-vault program the orchestrator targets.
func (o *Orchestrator) ProgramID() ed25519.PublicKey {
	return o.conf.ProgramID
}

func (o *Orchestrator) Config() Config {
	return o.conf
}

func (o *Orchestrator) Reader() *Reader {
	return o.reader
}

func (o *Orchestrator) Reserve() *ReserveCalculator {
	return o.reserve
}

// Execute runs the plan under its strategy. For FundThenInit, a failed
// funding step means the initialization step is never sent, and a failed
// initialization step after a confirmed funding step yields a
// *PartialProvisionError. An initialization step that times out after its
// accounts were initialized yields only ErrTimedOut.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	log := o.log.WithFields(logrus.Fields{
		"method":    "Execute",
		"operation": uuid.New().String(),
		"plan":      plan.Name,
		"strategy":  plan.Strategy.String(),
	})
	tracer.AddAttributes(map[string]interface{}{
		"plan":     plan.Name,
		"strategy": plan.Strategy.String(),
	})

	assembly, err := o.assembler.Assemble(ctx, plan)
	if err != nil {
		log.WithError(err).Debug("failure assembling plan")
		tracer.OnError(err)
		return nil, err
	}

	result := &Result{}
	if plan.Strategy == Atomic {
		result.Receipt, err = o.submitStep(ctx, log, assembly, 0)
		if err != nil {
			tracer.OnError(err)
			return result, err
		}
		return result, nil
	}

	result.Funding, err = o.submitStep(ctx, log, assembly, 0)
	if err != nil {
		log.WithError(err).Info("funding step failed, initialization not attempted")
		tracer.OnError(err)
		return result, errors.Wrap(err, "funding step failed")
	}

	result.Receipt, err = o.submitStep(ctx, log, assembly, 1)
	if errors.Is(err, ErrTimedOut) && o.initialized(ctx, plan) {
		log.WithError(err).Info("initialization step timed out but its accounts are initialized")
		tracer.OnError(err)
		return result, err
	}
	if err != nil {
		partial := &PartialProvisionError{
			Addresses: plan.Addresses(),
			Funding:   result.Funding,
			Err:       err,
		}
		log.WithError(err).Warn("initialization step failed after funding confirmed")
		metrics.RecordEvent(ctx, partialProvisionEventName, map[string]interface{}{
			"plan":      plan.Name,
			"funding":   result.Funding.Signature.String(),
			"addresses": len(partial.Addresses),
			"error":     err.Error(),
		})
		tracer.OnError(partial)
		return result, partial
	}

	return result, nil
}

// initialized reports whether every derived account the plan provisions for
// the program reads back as initialized. A timed out initialization step may
// still have landed, so this is checked before reporting partial
// provisioning.
func (o *Orchestrator) initialized(ctx context.Context, plan *Plan) bool {
	var checked int
	for i := range plan.Provisions {
		provision := &plan.Provisions[i]
		if !provision.isDerived() || !bytes.Equal(provision.Owner, o.conf.ProgramID) {
			continue
		}

		if err := o.reader.ProvisioningState(ctx, provision.Address, unityvault.IsInitialized); err != nil {
			return false
		}
		checked++
	}
	return checked > 0
}

// Run executes instructions that touch only existing accounts in a single
// transaction paid by payer.
func (o *Orchestrator) Run(ctx context.Context, name string, payer solana.Signer, instructions ...solana.Instruction) (*Receipt, error) {
	result, err := o.Execute(ctx, &Plan{
		Name:         name,
		Strategy:     Atomic,
		Payer:        payer,
		Instructions: instructions,
	})
	return result.Last(), err
}

// Resume sends only the initialization step of a FundThenInit plan whose
// accounts were already funded.
func (o *Orchestrator) Resume(ctx context.Context, plan *Plan) (*Receipt, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Resume")
	defer tracer.End()

	log := o.log.WithFields(logrus.Fields{
		"method":    "Resume",
		"operation": uuid.New().String(),
		"plan":      plan.Name,
	})

	assembly, err := o.assembler.AssembleInit(ctx, plan)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	receipt, err := o.submitStep(ctx, log, assembly, 0)
	if err != nil {
		tracer.OnError(err)
	}
	return receipt, err
}

// ExecuteBatch runs independent plans concurrently, bounded by
// MaxConcurrency. Results are positional. The first error is returned after
// every started plan has finished; plans not yet started when it occurred
// are skipped and have a nil result.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, plans []*Plan) ([]*Result, error) {
	results := make([]*Result, len(plans))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.conf.MaxConcurrency)

	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := o.Execute(ctx, plan)
			results[i] = result
			if err != nil {
				return errors.Wrapf(err, "plan %d (%s)", i, plan.Name)
			}
			return nil
		})
	}

	return results, g.Wait()
}

// submitStep submits one step, rebuilding and re-signing it with a fresh
// blockhash when the previous one went stale.
func (o *Orchestrator) submitStep(ctx context.Context, log *logrus.Entry, assembly *Assembly, index int) (*Receipt, error) {
	step := assembly.Steps[index]
	blockhash := assembly.Blockhash

	var receipt *Receipt
	_, err := retry.Retry(
		ctx,
		func() error {
			if receipt != nil {
				metrics.RecordCount(ctx, staleRetryMetricName, 1)

				fresh, err := o.client.GetLatestBlockhash(ctx)
				if err != nil {
					return errors.Wrap(err, "failed to refresh blockhash")
				}
				blockhash = fresh
			}

			var err error
			receipt, err = o.submitter.Submit(ctx, step.Transaction(blockhash), step.AllSigners()...)
			if errors.Is(err, ErrStaleFreshnessToken) {
				log.WithField("step", index).Debug("blockhash went stale, rebuilding")
			}
			return err
		},
		retry.RetriableErrors(ErrStaleFreshnessToken),
		retry.Limit(o.conf.StaleTokenRetries+1),
	)
	return receipt, err
}
