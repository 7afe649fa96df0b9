package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/unity-vault/vault-client/pkg/config"
	"github.com/unity-vault/vault-client/pkg/config/wrapper"
)

type conf struct {
	key string
}

// NewConfig returns a config backed by the upper-cased environment variable
// key. The variable is read on every Get so tests and operators can change it
// at runtime.
func NewConfig(key string) config.Config {
	return &conf{
		key: strings.ToUpper(key),
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	val := os.Getenv(c.key)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// Prefix namespaces a set of environment-based configs, eg. "UNITY_VAULT_".
type Prefix string

func (p Prefix) key(name string) string {
	return string(p) + name
}

// Int64 creates a prefixed env-based int64 config
func (p Prefix) Int64(name string, defaultValue int64) config.Int64 {
	return NewInt64Config(p.key(name), defaultValue)
}

// Uint64 creates a prefixed env-based uint64 config
func (p Prefix) Uint64(name string, defaultValue uint64) config.Uint64 {
	return NewUint64Config(p.key(name), defaultValue)
}

// String creates a prefixed env-based string config
func (p Prefix) String(name string, defaultValue string) config.String {
	return NewStringConfig(p.key(name), defaultValue)
}

// Bool creates a prefixed env-based bool config
func (p Prefix) Bool(name string, defaultValue bool) config.Bool {
	return NewBoolConfig(p.key(name), defaultValue)
}

// Duration creates a prefixed env-based duration config
func (p Prefix) Duration(name string, defaultValue time.Duration) config.Duration {
	return NewDurationConfig(p.key(name), defaultValue)
}

// NewInt64Config creates a env-based int64 config
func NewInt64Config(key string, defaultValue int64) config.Int64 {
	return wrapper.NewInt64Config(NewConfig(key), defaultValue)
}

// NewUint64Config creates a env-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewStringConfig creates a env-based string config
func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

// NewBoolConfig creates a env-based bool config
func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

// NewDurationConfig creates a env-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
