package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/config"
)

func TestConfig(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("https://api.devnet.solana.com")
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", val)

	unavailable := errors.New("unavailable")
	c.SetError(unavailable)
	_, err = c.Get(ctx)
	assert.Equal(t, unavailable, err)

	c.SetError(nil)
	c.SetValue(nil)
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("value")
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
