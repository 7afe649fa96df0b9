// Command unity-vault drives the unity-vault program from the command line:
// communities, governance, lending, tokens and profiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/unity-vault/vault-client/pkg/metrics"
	"github.com/unity-vault/vault-client/pkg/rate"
	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/keyfile"
	"github.com/unity-vault/vault-client/pkg/vault"
)

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")
	keypair    = flag.String("keypair", "", "payer key file, overrides keypair_path")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "cmd/unity-vault")

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file, so a missing explicit file is checked here.
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
	} else if !os.IsNotExist(err) {
		logger.WithError(err).Errorf("failed to check if config exists")
		os.Exit(1)
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		logger.WithError(err).Error("failed to unmarshal config")
		os.Exit(1)
	}
	if len(*keypair) > 0 {
		config.KeypairPath = *keypair
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
		} else {
			metricsProvider = nr
			defer nr.Shutdown(defaultShutdownTimeout)
		}
	}

	configureLogger(config, metricsProvider)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = metrics.NewContext(ctx, metricsProvider)

	env, err := newEnvironment(ctx, config, cmd.needsPayer)
	if err != nil {
		logger.WithError(err).Error("failed to initialize")
		os.Exit(1)
	}

	if err := cmd.run(ctx, env, flag.Args()[1:]); err != nil {
		logger.WithError(err).WithField("command", flag.Arg(0)).Error("command failed")
		os.Exit(1)
	}
}

// environment is everything a command needs to talk to the cluster.
type environment struct {
	config       BaseConfig
	client       solana.Client
	orchestrator *vault.Orchestrator
	payer        solana.Signer
}

func newEnvironment(ctx context.Context, config BaseConfig, needsPayer bool) (*environment, error) {
	vaultConfig, err := vault.LoadConfig(ctx, vault.WithEnvConfigs())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vault config")
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.RPCRateLimit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RPCRateLimit))
	}

	client := solana.New(vaultConfig.Endpoint, solana.WithLimiter(limiter))

	orchestrator, err := vault.NewOrchestrator(client, vaultConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create orchestrator")
	}

	env := &environment{
		config:       config,
		client:       client,
		orchestrator: orchestrator,
	}

	if needsPayer {
		path, err := expandPath(config.KeypairPath)
		if err != nil {
			return nil, err
		}

		env.payer, err = keyfile.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load keypair %s", path)
		}
	}

	return env, nil
}

func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, path[2:]), nil
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: unity-vault [flags] <command> [args]\n\nflags:\n")
	flag.PrintDefaults()

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(os.Stderr, "\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, commands[name].usage)
	}
}
