package vault

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/config"
	"github.com/unity-vault/vault-client/pkg/config/env"
	"github.com/unity-vault/vault-client/pkg/config/memory"
	"github.com/unity-vault/vault-client/pkg/config/wrapper"
	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
)

const (
	envConfigPrefix = env.Prefix("UNITY_VAULT_")

	EndpointConfigEnvName = "ENDPOINT"
	defaultEndpoint       = "http://127.0.0.1:8899"

	ProgramIDConfigEnvName = "PROGRAM_ID"

	CommitmentConfigEnvName = "COMMITMENT"
	defaultCommitment       = "confirmed"

	ConfirmationTimeoutConfigEnvName = "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 30 * time.Second

	PollIntervalConfigEnvName = "POLL_INTERVAL"
	defaultPollInterval       = solana.PollRate

	StaleTokenRetriesConfigEnvName = "STALE_TOKEN_RETRIES"
	defaultStaleTokenRetries       = 3

	MaxConcurrencyConfigEnvName = "MAX_CONCURRENCY"
	defaultMaxConcurrency       = 4
)

// Config is the explicit configuration handed to every vault component.
type Config struct {
	// Endpoint is the JSON-RPC url of the remote executor.
	Endpoint string

	// ProgramID is the unity-vault program.
	ProgramID ed25519.PublicKey

	// Commitment is used for preflight, reads, and confirmation.
	Commitment solana.Commitment

	// ConfirmationTimeout bounds the wait for a submitted transaction.
	ConfirmationTimeout time.Duration

	// PollInterval is the delay between signature status queries.
	PollInterval time.Duration

	// StaleTokenRetries is how many times a transaction is rebuilt with a
	// fresh blockhash after ErrStaleFreshnessToken.
	StaleTokenRetries uint

	// MaxConcurrency bounds ExecuteBatch.
	MaxConcurrency int
}

// DefaultConfig returns a Config for a local validator running the default
// program deployment.
func DefaultConfig() Config {
	return Config{
		Endpoint:            defaultEndpoint,
		ProgramID:           unityvault.DefaultProgramID,
		Commitment:          solana.CommitmentConfirmed,
		ConfirmationTimeout: defaultConfirmationTimeout,
		PollInterval:        defaultPollInterval,
		StaleTokenRetries:   defaultStaleTokenRetries,
		MaxConcurrency:      defaultMaxConcurrency,
	}
}

// Validate checks the Config for values no component can operate with.
func (c Config) Validate() error {
	if len(c.ProgramID) != ed25519.PublicKeySize {
		return errors.Errorf("invalid program id length: %d", len(c.ProgramID))
	}
	if _, err := solana.CommitmentFromString(c.Commitment.Commitment); err != nil {
		return err
	}
	if c.ConfirmationTimeout <= 0 {
		return errors.New("confirmation timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.PollInterval > c.ConfirmationTimeout {
		return errors.New("poll interval must not exceed the confirmation timeout")
	}
	if c.MaxConcurrency < 1 {
		return errors.New("max concurrency must be at least 1")
	}
	return nil
}

type conf struct {
	endpoint            config.String
	programID           config.String
	commitment          config.String
	confirmationTimeout config.Duration
	pollInterval        config.Duration
	staleTokenRetries   config.Uint64
	maxConcurrency      config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:            envConfigPrefix.String(EndpointConfigEnvName, defaultEndpoint),
			programID:           envConfigPrefix.String(ProgramIDConfigEnvName, base58.Encode(unityvault.DefaultProgramID)),
			commitment:          envConfigPrefix.String(CommitmentConfigEnvName, defaultCommitment),
			confirmationTimeout: envConfigPrefix.Duration(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			pollInterval:        envConfigPrefix.Duration(PollIntervalConfigEnvName, defaultPollInterval),
			staleTokenRetries:   envConfigPrefix.Uint64(StaleTokenRetriesConfigEnvName, defaultStaleTokenRetries),
			maxConcurrency:      envConfigPrefix.Uint64(MaxConcurrencyConfigEnvName, defaultMaxConcurrency),
		}
	}
}

// WithConfig returns a provider that always yields c.
func WithConfig(c Config) ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:            wrapper.NewStringConfig(memory.NewConfig(c.Endpoint), defaultEndpoint),
			programID:           wrapper.NewStringConfig(memory.NewConfig(base58.Encode(c.ProgramID)), ""),
			commitment:          wrapper.NewStringConfig(memory.NewConfig(c.Commitment.Commitment), defaultCommitment),
			confirmationTimeout: wrapper.NewDurationConfig(memory.NewConfig(c.ConfirmationTimeout), defaultConfirmationTimeout),
			pollInterval:        wrapper.NewDurationConfig(memory.NewConfig(c.PollInterval), defaultPollInterval),
			staleTokenRetries:   wrapper.NewUint64Config(memory.NewConfig(uint64(c.StaleTokenRetries)), defaultStaleTokenRetries),
			maxConcurrency:      wrapper.NewUint64Config(memory.NewConfig(uint64(c.MaxConcurrency)), defaultMaxConcurrency),
		}
	}
}

// LoadConfig resolves the provider into a validated Config.
func LoadConfig(ctx context.Context, provider ConfigProvider) (Config, error) {
	c := provider()

	programID, err := base58.Decode(c.programID.Get(ctx))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid program id")
	}

	commitment, err := solana.CommitmentFromString(c.commitment.Get(ctx))
	if err != nil {
		return Config{}, err
	}

	res := Config{
		Endpoint:            c.endpoint.Get(ctx),
		ProgramID:           programID,
		Commitment:          commitment,
		ConfirmationTimeout: c.confirmationTimeout.Get(ctx),
		PollInterval:        c.pollInterval.Get(ctx),
		StaleTokenRetries:   uint(c.staleTokenRetries.Get(ctx)),
		MaxConcurrency:      int(c.maxConcurrency.Get(ctx)),
	}
	if err := res.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return res, nil
}
