package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unity-vault/vault-client/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	c := NewConfig(env)
	v, err := c.Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = c.Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestLowercaseKey(t *testing.T) {
	t.Setenv("ENV_CONFIG_LOWER", "value")

	v, err := NewConfig("env_config_lower").Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestPrefix(t *testing.T) {
	ctx := context.Background()
	p := Prefix("ENV_TEST_")

	t.Setenv("ENV_TEST_TIMEOUT", "3s")
	t.Setenv("ENV_TEST_RETRIES", "4")
	t.Setenv("ENV_TEST_OFFSET", "-2")
	t.Setenv("ENV_TEST_ENDPOINT", "http://localhost:8899")
	t.Setenv("ENV_TEST_ENABLED", "true")

	assert.Equal(t, 3*time.Second, p.Duration("TIMEOUT", time.Second).Get(ctx))
	assert.EqualValues(t, 4, p.Uint64("RETRIES", 1).Get(ctx))
	assert.EqualValues(t, -2, p.Int64("OFFSET", 0).Get(ctx))
	assert.Equal(t, "http://localhost:8899", p.String("ENDPOINT", "").Get(ctx))
	assert.True(t, p.Bool("ENABLED", false).Get(ctx))

	assert.Equal(t, "confirmed", p.String("MISSING", "confirmed").Get(ctx))
}
