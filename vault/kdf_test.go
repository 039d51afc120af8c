package vault

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKDF() *KDFParams {
	return &KDFParams{Time: 1, Memory: 64, Threads: 1, KeyLen: KeyLen}
}

func TestDefaultKDFParams(t *testing.T) {
	p := DefaultKDFParams()
	assert.Equal(t, uint32(5), p.Time)
	assert.Equal(t, uint32(32*1024), p.Memory)
	assert.Equal(t, uint8(6), p.Threads)
	assert.Equal(t, uint32(32), p.KeyLen)
}

func TestDeriveKey_DeterministicWithDefaults(t *testing.T) {
	salt := bytes.Repeat([]byte{0x07}, SaltLen)

	k1, err := DeriveKey([]byte("1234"), salt, DefaultKDFParams())
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("1234"), salt, DefaultKDFParams())
	require.NoError(t, err)

	assert.Len(t, k1, KeyLen)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_SaltAndPasswordChangeKey(t *testing.T) {
	s1 := bytes.Repeat([]byte{1}, SaltLen)
	s2 := bytes.Repeat([]byte{2}, SaltLen)

	a, err := DeriveKey([]byte("pw"), s1, testKDF())
	require.NoError(t, err)
	b, err := DeriveKey([]byte("pw"), s2, testKDF())
	require.NoError(t, err)
	c, err := DeriveKey([]byte("other"), s1, testKDF())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDeriveKey_InvalidInput(t *testing.T) {
	salt := make([]byte, SaltLen)
	tests := []struct {
		name   string
		salt   []byte
		params *KDFParams
	}{
		{"short salt", make([]byte, 8), testKDF()},
		{"long salt", make([]byte, 16), testKDF()},
		{"nil params", salt, nil},
		{"zero time", salt, &KDFParams{Time: 0, Memory: 64, Threads: 1, KeyLen: 32}},
		{"zero threads", salt, &KDFParams{Time: 1, Memory: 64, Threads: 0, KeyLen: 32}},
		{"memory too small", salt, &KDFParams{Time: 1, Memory: 8, Threads: 4, KeyLen: 32}},
		{"zero key length", salt, &KDFParams{Time: 1, Memory: 64, Threads: 1, KeyLen: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey([]byte("pw"), tt.salt, tt.params)
			require.ErrorIs(t, err, ErrKeyDerivation)
			assert.Nil(t, key)
		})
	}
}
