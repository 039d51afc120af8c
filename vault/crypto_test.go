package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := randomKey(t)
	data := bytes.Repeat([]byte{0x42}, 100)

	sealed, err := Encrypt(key, data)
	require.NoError(t, err)
	assert.Len(t, sealed, NonceLen+len(data)+TagLen)

	plain, err := Decrypt(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, data, plain)
}

func TestEncrypt_EmptyPlaintext(t *testing.T) {
	key := randomKey(t)
	sealed, err := Encrypt(key, nil)
	require.NoError(t, err)
	assert.Len(t, sealed, NonceLen+TagLen)

	plain, err := Decrypt(key, sealed)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := randomKey(t)
	a, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)
	b, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:NonceLen], b[:NonceLen])
	assert.NotEqual(t, a, b)
}

func TestEncrypt_Errors(t *testing.T) {
	_, err := Encrypt([]byte("short"), []byte("x"))
	require.ErrorIs(t, err, ErrEncryption)

	failing := &errReader{err: errors.New("no entropy")}
	_, err = encrypt(failing, randomKey(t), []byte("x"))
	require.ErrorIs(t, err, ErrEncryption)
}

func TestDecrypt_Rejects(t *testing.T) {
	key := randomKey(t)
	sealed, err := Encrypt(key, []byte("secret payload"))
	require.NoError(t, err)

	_, err = Decrypt(randomKey(t), sealed)
	assert.ErrorIs(t, err, ErrAuthFailed, "wrong key")

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = Decrypt(key, tampered)
	assert.ErrorIs(t, err, ErrAuthFailed, "flipped tag bit")

	_, err = Decrypt(key, sealed[:NonceLen+TagLen-1])
	assert.ErrorIs(t, err, ErrAuthFailed, "truncated")

	_, err = Decrypt(key, nil)
	assert.ErrorIs(t, err, ErrAuthFailed, "empty")
}

func TestZero(t *testing.T) {
	b := []byte("hunter2")
	Zero(b)
	assert.Equal(t, make([]byte, 7), b)
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
