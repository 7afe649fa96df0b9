package main

import (
	"github.com/spf13/viper"
)

// BaseConfig is the command line configuration. Settings that belong to the
// vault client itself (endpoint, program, commitment, timeouts) are read by
// vault.LoadConfig from the environment.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// KeypairPath is the JSON key file of the paying wallet.
	KeypairPath string `mapstructure:"keypair_path"`

	// RPCRateLimit is the number of requests per second sent to the cluster.
	// Zero disables rate limiting.
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "unity-vault",

	KeypairPath: "~/.config/solana/id.json",

	RPCRateLimit: 10,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("keypair_path", "KEYPAIR_PATH")

	_ = viper.BindEnv("rpc_rate_limit", "RPC_RATE_LIMIT")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
