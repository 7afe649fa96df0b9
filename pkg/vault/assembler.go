package vault

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

// Strategy selects how account provisioning is combined with the business
// instructions of a Plan.
type Strategy uint8

const (
	// Atomic creates every provisioned account and runs the business
	// instructions in a single all-or-nothing transaction.
	Atomic Strategy = iota

	// FundThenInit funds the provisioned accounts in one transaction and
	// runs the business instructions in a second one, submitted only after
	// the first confirms.
	FundThenInit
)

func (s Strategy) String() string {
	switch s {
	case Atomic:
		return "atomic"
	case FundThenInit:
		return "fund_then_init"
	}
	return "unknown"
}

// Provision is an account that must exist, holding its rent-exempt reserve,
// before the business instructions run.
type Provision struct {
	Address ed25519.PublicKey
	Size    uint64
	Owner   ed25519.PublicKey

	// Signer is set for accounts backed by a fresh key pair, which co-sign
	// their own creation. Derived addresses leave it nil.
	Signer solana.Signer
}

func (p *Provision) isDerived() bool {
	return p.Signer == nil
}

// Plan describes one business operation.
type Plan struct {
	// Name identifies the operation in logs and traces.
	Name string

	Strategy Strategy

	// Payer funds the provisions and pays fees. It is always the first
	// signer of every transaction.
	Payer solana.Signer

	// Signers are additional signers required by Instructions.
	Signers []solana.Signer

	Provisions   []Provision
	Instructions []solana.Instruction
}

// Addresses returns the provisioned addresses in order.
func (p *Plan) Addresses() []ed25519.PublicKey {
	res := make([]ed25519.PublicKey, len(p.Provisions))
	for i := range p.Provisions {
		res[i] = p.Provisions[i].Address
	}
	return res
}

func (p *Plan) validate() error {
	if p.Payer == nil {
		return errors.Wrap(ErrInvalidPlan, "missing payer")
	}
	if len(p.Instructions) == 0 && len(p.Provisions) == 0 {
		return errors.Wrap(ErrInvalidPlan, "no instructions")
	}
	if p.Strategy == FundThenInit && (len(p.Provisions) == 0 || len(p.Instructions) == 0) {
		return errors.Wrap(ErrInvalidPlan, "fund then init requires provisions and instructions")
	}
	if p.Strategy != Atomic && p.Strategy != FundThenInit {
		return errors.Wrapf(ErrInvalidPlan, "unknown strategy %d", p.Strategy)
	}

	for i, provision := range p.Provisions {
		if len(provision.Address) != ed25519.PublicKeySize || len(provision.Owner) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrInvalidPlan, "provision %d has an invalid address or owner", i)
		}
		if provision.Signer != nil && !bytes.Equal(provision.Signer.PublicKey(), provision.Address) {
			return errors.Wrapf(ErrInvalidPlan, "provision %d signer does not match its address", i)
		}
	}
	return nil
}

// Step is one transaction of an assembled Plan. It is compiled against a
// blockhash at submission time so that it can be rebuilt when the
// blockhash goes stale.
type Step struct {
	Payer        solana.Signer
	Signers      []solana.Signer
	Instructions []solana.Instruction
}

// Transaction compiles and stamps the step. Signing is left to the
// Submitter.
func (s *Step) Transaction(blockhash solana.Blockhash) solana.Transaction {
	txn := solana.NewTransaction(s.Payer.PublicKey(), s.Instructions...)
	txn.SetBlockhash(blockhash)
	return txn
}

// AllSigners returns the payer followed by the other signers.
func (s *Step) AllSigners() []solana.Signer {
	return append([]solana.Signer{s.Payer}, s.Signers...)
}

// Assembly is the output of the Assembler. Atomic plans yield one step and
// FundThenInit plans yield a funding step followed by an initialization
// step. All steps share Blockhash.
type Assembly struct {
	Plan      *Plan
	Blockhash solana.Blockhash
	Quotes    []ReserveQuote
	Steps     []*Step
}

// Assembler turns Plans into Steps.
type Assembler struct {
	log     *logrus.Entry
	client  solana.Client
	reserve *ReserveCalculator
}

func NewAssembler(client solana.Client, reserve *ReserveCalculator) *Assembler {
	return &Assembler{
		log:     logrus.StandardLogger().WithField("type", "vault/assembler"),
		client:  client,
		reserve: reserve,
	}
}

// Assemble quotes a reserve for every provision, fetches one blockhash, and
// builds the steps for the plan's strategy.
func (a *Assembler) Assemble(ctx context.Context, plan *Plan) (*Assembly, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}

	payer := plan.Payer.PublicKey()
	assembly := &Assembly{
		Plan:   plan,
		Quotes: make([]ReserveQuote, len(plan.Provisions)),
	}

	var funding []solana.Instruction
	var provisionSigners []solana.Signer
	for i := range plan.Provisions {
		provision := &plan.Provisions[i]

		quote, err := a.reserve.MinimumBalance(ctx, provision.Size)
		if err != nil {
			return nil, err
		}
		assembly.Quotes[i] = quote

		switch {
		case !provision.isDerived():
			funding = append(funding, system.CreateAccount(payer, provision.Address, provision.Owner, quote.Lamports, provision.Size))
			provisionSigners = append(provisionSigners, provision.Signer)
		case plan.Strategy == Atomic:
			funding = append(funding, system.CreateProgramDerivedAccount(payer, provision.Address, provision.Owner, quote.Lamports, provision.Size))
		default:
			funding = append(funding, system.Transfer(payer, provision.Address, quote.Lamports))
		}
	}

	blockhash, err := a.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest blockhash")
	}
	assembly.Blockhash = blockhash

	switch plan.Strategy {
	case Atomic:
		instructions := append(append([]solana.Instruction{}, funding...), plan.Instructions...)
		assembly.Steps = []*Step{
			{
				Payer:        plan.Payer,
				Signers:      uniqueSigners(payer, provisionSigners, plan.Signers),
				Instructions: instructions,
			},
		}
	case FundThenInit:
		assembly.Steps = []*Step{
			{
				Payer:        plan.Payer,
				Signers:      uniqueSigners(payer, provisionSigners),
				Instructions: funding,
			},
			a.initStep(plan),
		}
	}

	if err := checkSizes(assembly); err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"method":     "Assemble",
		"plan":       plan.Name,
		"strategy":   plan.Strategy.String(),
		"payer":      base58.Encode(payer),
		"provisions": len(plan.Provisions),
		"steps":      len(assembly.Steps),
	}).Trace("plan assembled")

	return assembly, nil
}

// AssembleInit builds only the business step of a plan, for resuming a
// FundThenInit operation whose accounts are already funded.
func (a *Assembler) AssembleInit(ctx context.Context, plan *Plan) (*Assembly, error) {
	if plan.Payer == nil || len(plan.Instructions) == 0 {
		return nil, errors.Wrap(ErrInvalidPlan, "resume requires a payer and instructions")
	}

	blockhash, err := a.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest blockhash")
	}

	assembly := &Assembly{
		Plan:      plan,
		Blockhash: blockhash,
		Steps:     []*Step{a.initStep(plan)},
	}
	if err := checkSizes(assembly); err != nil {
		return nil, err
	}
	return assembly, nil
}

// checkSizes rejects steps whose encoded transaction would not fit in a
// packet. The size does not depend on signature or blockhash values.
func checkSizes(assembly *Assembly) error {
	for i, step := range assembly.Steps {
		if size := step.Transaction(assembly.Blockhash).Size(); size > solana.MaxTransactionSize {
			return errors.Wrapf(ErrInvalidPlan, "step %d encodes to %d bytes (max %d)", i, size, solana.MaxTransactionSize)
		}
	}
	return nil
}

func (a *Assembler) initStep(plan *Plan) *Step {
	return &Step{
		Payer:        plan.Payer,
		Signers:      uniqueSigners(plan.Payer.PublicKey(), plan.Signers),
		Instructions: append([]solana.Instruction{}, plan.Instructions...),
	}
}

// uniqueSigners flattens groups of signers, dropping the payer and
// duplicates.
func uniqueSigners(payer ed25519.PublicKey, groups ...[]solana.Signer) []solana.Signer {
	seen := map[string]struct{}{
		string(payer): {},
	}

	var res []solana.Signer
	for _, group := range groups {
		for _, signer := range group {
			key := string(signer.PublicKey())
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			res = append(res, signer)
		}
	}
	return res
}
