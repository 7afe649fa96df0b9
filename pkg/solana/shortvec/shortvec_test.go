package shortvec

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLen(t *testing.T) {
	for _, tc := range []struct {
		n       int
		encoded []byte
	}{
		{0x0, []byte{0x0}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0xff, []byte{0xff, 0x01}},
		{0x100, []byte{0x80, 0x02}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x80, 0x80, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
	} {
		encoded, err := AppendLen(nil, tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.encoded, encoded, tc.n)
		assert.Equal(t, len(tc.encoded), Size(tc.n), tc.n)

		decoded, err := ReadLen(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, tc.n, decoded)
	}
}

func TestAppendLen_KeepsPrefix(t *testing.T) {
	encoded, err := AppendLen([]byte{0xaa}, 0x80)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0x80, 0x01}, encoded)
}

func TestRoundTrip(t *testing.T) {
	var buf []byte
	for n := 0; n <= math.MaxUint16; n += 7 {
		var err error
		buf, err = AppendLen(buf[:0], n)
		require.NoError(t, err)

		decoded, err := ReadLen(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, n, decoded)
	}
}

func TestInvalid(t *testing.T) {
	_, err := AppendLen(nil, math.MaxUint16+1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = AppendLen(nil, -1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = ReadLen(bytes.NewReader([]byte{0xff, 0xff, 0x04}))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = ReadLen(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x01}))
	assert.Error(t, err)

	_, err = ReadLen(bytes.NewReader([]byte{0x80}))
	assert.ErrorIs(t, err, io.EOF)
}
