// Package memory provides a config.Config whose value is set in process,
// used by tests and by callers that build a vault.Config by hand.
package memory

import (
	"context"
	"sync"

	"github.com/unity-vault/vault-client/pkg/config"
)

// Config holds a single value. A nil value reads as config.ErrNoValue.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// SetValue replaces the value. Passing nil clears it.
func (c *Config) SetValue(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// SetError makes Get fail with err. Passing nil restores normal reads.
func (c *Config) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
