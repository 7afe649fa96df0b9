package vaulttest

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/memory"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/testutil"
	"github.com/unity-vault/vault-client/pkg/vault"
)

// DefaultFunding is the balance given to signers created by an Env.
const DefaultFunding = 100_000_000_000

// Env is an orchestrator wired to an in-memory executor running the
// simulated program.
type Env struct {
	Config       vault.Config
	Executor     *memory.Executor
	Orchestrator *vault.Orchestrator
	Payer        solana.Signer
}

// NewConfig returns a Config with short waits, suitable for tests.
func NewConfig() vault.Config {
	c := vault.DefaultConfig()
	c.Endpoint = "memory"
	c.ConfirmationTimeout = time.Second
	c.PollInterval = 5 * time.Millisecond
	return c
}

// NewEnv returns an Env with a funded payer. Program options are applied to
// the simulated program.
func NewEnv(t testing.TB, opts ...Option) *Env {
	return NewEnvWithConfig(t, NewConfig(), opts...)
}

func NewEnvWithConfig(t testing.TB, c vault.Config, opts ...Option) *Env {
	executor := memory.New(memory.WithProgram(c.ProgramID, NewProgram(c.ProgramID, opts...)))

	orchestrator, err := vault.NewOrchestrator(executor, c)
	require.NoError(t, err)

	env := &Env{
		Config:       c,
		Executor:     executor,
		Orchestrator: orchestrator,
	}
	env.Payer = env.NewFundedSigner(t, DefaultFunding)
	return env
}

// NewFundedSigner returns a fresh key pair holding lamports.
func (e *Env) NewFundedSigner(t testing.TB, lamports uint64) solana.Signer {
	signer, err := solana.NewRandomSigner()
	require.NoError(t, err)

	e.Executor.Fund(signer.PublicKey(), lamports)
	return signer
}

// NewKey returns a random address that holds no account.
func (e *Env) NewKey(t *testing.T) ed25519.PublicKey {
	return testutil.GenerateSolanaKeys(t, 1)[0]
}

// Balance returns the lamports at address, or zero when it does not exist.
func (e *Env) Balance(address ed25519.PublicKey) uint64 {
	info, ok := e.Executor.Account(address)
	if !ok {
		return 0
	}
	return info.Lamports
}

// Reserve is the rent-exempt balance of a program account.
func (e *Env) Reserve() uint64 {
	return memory.MinimumBalance(unityvault.AccountSize)
}
