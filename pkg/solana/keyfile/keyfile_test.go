package keyfile

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoad(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, Write(path, priv))

	signer, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, pub, signer.PublicKey())

	sig, err := signer.Sign([]byte("message"))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("message"), sig))
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	_, err = Load(path)
	assert.Error(t, err)

	assert.Error(t, Write(filepath.Join(dir, "short.json"), make([]byte, 10)))
}
