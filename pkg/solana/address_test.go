package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	exceededSeed := make([]byte, MaxSeedLength+1)
	maxSeed := make([]byte, MaxSeedLength)

	// The typo here was taken directly from the Solana test case,
	// which was used to derive the expected outputs.
	publicKey, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	programID, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, exceededSeed)
	assert.True(t, errors.Is(err, ErrSeedTooLong))
	_, err = CreateProgramAddress(programID, []byte("short seed"), exceededSeed)
	assert.True(t, errors.Is(err, ErrSeedTooLong))

	_, err = CreateProgramAddress(programID, maxSeed)
	assert.NoError(t, err)

	cases := []struct {
		expected string
		input    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			input:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			input:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			input:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			input:    [][]byte{publicKey},
		},
	}

	for _, tc := range cases {
		key, err := CreateProgramAddress(programID, tc.input...)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(key))
	}
}

type fixedHash struct {
	sumResult []byte
}

func (h *fixedHash) Write(p []byte) (n int, err error) { return len(p), nil }
func (h *fixedHash) Sum(b []byte) []byte               { return h.sumResult }
func (h *fixedHash) Reset()                            {}
func (h *fixedHash) Size() int                         { return sha256.Size }
func (h *fixedHash) BlockSize() int                    { return sha256.BlockSize }

func TestCreateProgramAddress_OnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	programHashCtor = func() hash.Hash {
		return &fixedHash{sumResult: pub}
	}
	defer func() {
		programHashCtor = sha256.New
	}()

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, []byte("community"))
	assert.Equal(t, ErrInvalidPublicKey, err)
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	assert.True(t, IsOnCurve(pub))
	assert.False(t, IsOnCurve(pub[:31]))

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	derived, _, err := DeriveAddress(programID, []byte("community"))
	require.NoError(t, err)
	assert.False(t, IsOnCurve(derived))
}

func TestDeriveAddress_Deterministic(t *testing.T) {
	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	seeds := [][]byte{[]byte("community"), owner, []byte("Test Community")}

	a, bumpA, err := DeriveAddress(programID, seeds...)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, bumpB, err := DeriveAddress(programID, seeds...)
		require.NoError(t, err)
		assert.EqualValues(t, a, b)
		assert.Equal(t, bumpA, bumpB)
	}

	reordered, _, err := DeriveAddress(programID, seeds[1], seeds[0], seeds[2])
	require.NoError(t, err)
	assert.NotEqualValues(t, a, reordered)
}

func TestDeriveAddress_MatchesIndependentImplementation(t *testing.T) {
	for i := 0; i < 50; i++ {
		programID, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		owner, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		seeds := [][]byte{[]byte("lending_pool"), owner, []byte("mint")}

		actual, bump, err := DeriveAddress(programID, seeds...)
		require.NoError(t, err)

		expected, expectedBump, err := solanago.FindProgramAddress(seeds, solanago.PublicKeyFromBytes(programID))
		require.NoError(t, err)

		assert.EqualValues(t, expected[:], actual)
		assert.Equal(t, expectedBump, bump)
	}
}

func TestDeriveAddress_SeedTooLong(t *testing.T) {
	var hashCalls int
	programHashCtor = func() hash.Hash {
		hashCalls++
		return sha256.New()
	}
	defer func() {
		programHashCtor = sha256.New
	}()

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, _, err = DeriveAddress(programID, []byte("community"), []byte("a community name that is far too long for a seed"))
	assert.True(t, errors.Is(err, ErrSeedTooLong))

	tooMany := make([][]byte, MaxSeeds)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	_, _, err = DeriveAddress(programID, tooMany...)
	assert.True(t, errors.Is(err, ErrSeedTooLong))

	assert.Zero(t, hashCalls)

	_, _, err = DeriveAddress(programID, tooMany[:MaxSeeds-1]...)
	assert.NoError(t, err)
	assert.NotZero(t, hashCalls)
}

func TestFindProgramAddress_Ref(t *testing.T) {
	references := []struct {
		programID string
		expected  string
	}{
		{
			programID: "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			expected:  "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd",
		},
		{
			programID: "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
			expected:  "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S",
		},
		{
			programID: "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3",
			expected:  "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv",
		},
		{
			programID: "GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeP",
			expected:  "2mN5Nfq9v1EwTV9FPTHPESZ3XiZce9wi5PQoULFuxvev",
		},
		{
			programID: "2M59vuWgsiuHAqQVB6KvuXuaBCJR8138gMAm4uCuR6Du",
			expected:  "E5dLtHAM353EPnHyuZ32sKREn26VW4Y8bzb2KQJTBHQh",
		},
	}

	for _, r := range references {
		programID, err := base58.Decode(r.programID)
		require.NoError(t, err)
		expected, err := base58.Decode(r.expected)
		require.NoError(t, err)

		actual, err := FindProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
		assert.NoError(t, err)
		assert.EqualValues(t, expected, actual)
	}
}
