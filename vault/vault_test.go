package vault

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestVault(t *testing.T, opts ...Option) *Vault {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.vault")
	opts = append([]Option{WithKDFParams(testKDF())}, opts...)
	return NewVault(path, opts...)
}

func TestSaveLoad_Scenario(t *testing.T) {
	v := newTestVault(t)
	store := sampleStore()

	require.NoError(t, v.Save(store, []byte("123")))

	got, err := v.Load([]byte("123"))
	require.NoError(t, err)
	assert.True(t, store.Equal(got))
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "sigma", *got.Entries[0].Username)
	assert.Nil(t, got.Entries[0].Password)
}

func TestSave_FileLayout(t *testing.T) {
	v := newTestVault(t)
	store := sampleStore()
	require.NoError(t, v.Save(store, []byte("123")))

	raw, err := os.ReadFile(v.Filename)
	require.NoError(t, err)
	assert.Len(t, raw, SaltLen+NonceLen+len(Encode(store))+TagLen)

	key, err := DeriveKey([]byte("123"), raw[:SaltLen], testKDF())
	require.NoError(t, err)
	pt, err := Decrypt(key, raw[SaltLen:])
	require.NoError(t, err)
	assert.Equal(t, Encode(store), pt)

	info, err := os.Stat(v.Filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestLoad_WrongPassword(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Save(sampleStore(), []byte("right")))

	store, err := v.Load([]byte("wrong"))
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Nil(t, store)
	assert.Equal(t, ErrAuthFailed, KindOf(err))
}

func TestSave_FreshSaltAndNonce(t *testing.T) {
	v := newTestVault(t)
	store := sampleStore()

	require.NoError(t, v.Save(store, []byte("pw")))
	first, err := os.ReadFile(v.Filename)
	require.NoError(t, err)

	require.NoError(t, v.Save(store, []byte("pw")))
	second, err := os.ReadFile(v.Filename)
	require.NoError(t, err)

	assert.NotEqual(t, first[:SaltLen], second[:SaltLen], "salt")
	assert.NotEqual(t, first[SaltLen:HeaderLen], second[SaltLen:HeaderLen], "nonce")
	assert.NotEqual(t, first[HeaderLen:], second[HeaderLen:], "ciphertext")
}

func TestLoad_Truncated(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Save(sampleStore(), []byte("pw")))
	raw, err := os.ReadFile(v.Filename)
	require.NoError(t, err)

	for n := 0; n < len(raw); n++ {
		require.NoError(t, os.WriteFile(v.Filename, raw[:n], filePerm))
		store, err := v.Load([]byte("pw"))
		require.Error(t, err, "truncated to %d bytes", n)
		assert.Nil(t, store)
		if n < HeaderLen {
			assert.ErrorIs(t, err, ErrMalformedVault, "truncated to %d bytes", n)
		} else {
			assert.ErrorIs(t, err, ErrAuthFailed, "truncated to %d bytes", n)
		}
	}
}

func TestLoad_Tampered(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Save(sampleStore(), []byte("pw")))
	raw, err := os.ReadFile(v.Filename)
	require.NoError(t, err)

	// Flip one bit in each region: salt, nonce, ciphertext, tag.
	for _, i := range []int{0, SaltLen, HeaderLen, len(raw) - 1} {
		bad := append([]byte(nil), raw...)
		bad[i] ^= 0x80
		require.NoError(t, os.WriteFile(v.Filename, bad, filePerm))
		_, err := v.Load([]byte("pw"))
		assert.ErrorIs(t, err, ErrAuthFailed, "byte %d", i)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	v := newTestVault(t)
	_, err := v.Load([]byte("pw"))
	require.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_AuthenticatedGarbagePayload(t *testing.T) {
	v := newTestVault(t)
	salt := bytes.Repeat([]byte{9}, SaltLen)
	key, err := DeriveKey([]byte("pw"), salt, testKDF())
	require.NoError(t, err)
	sealed, err := Encrypt(key, []byte("not a store"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(v.Filename, joinFile(salt, sealed), filePerm))

	_, err = v.Load([]byte("pw"))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestSave_FollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.vault")
	link := filepath.Join(dir, "link.vault")

	require.NoError(t, NewVault(target, WithKDFParams(testKDF())).Save(NewStore("a"), []byte("pw")))
	require.NoError(t, os.Symlink(target, link))

	viaLink := NewVault(link, WithKDFParams(testKDF()))
	require.NoError(t, viaLink.Save(NewStore("b"), []byte("pw")))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link replaced by a regular file")

	store, err := NewVault(target, WithKDFParams(testKDF())).Load([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "b", store.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files left behind")
}

func TestSave_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "store.vault")
	v := NewVault(path, WithKDFParams(testKDF()))

	err := v.Save(sampleStore(), []byte("pw"))
	require.ErrorIs(t, err, ErrIO)
	assert.NoFileExists(t, path)
}

func TestSave_FailureKeepsPreviousFile(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Save(sampleStore(), []byte("pw")))
	before, err := os.ReadFile(v.Filename)
	require.NoError(t, err)

	broken := NewVault(v.Filename, WithKDFParams(testKDF()), WithRand(&errReader{err: errors.New("no entropy")}))
	err = broken.Save(NewStore("other"), []byte("pw"))
	require.ErrorIs(t, err, ErrEncryption)

	badKDF := NewVault(v.Filename, WithKDFParams(&KDFParams{Time: 0, Memory: 64, Threads: 1, KeyLen: KeyLen}))
	err = badKDF.Save(NewStore("other"), []byte("pw"))
	require.ErrorIs(t, err, ErrKeyDerivation)

	after, err := os.ReadFile(v.Filename)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(v.Filename))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestSave_NilStore(t *testing.T) {
	v := newTestVault(t)
	require.ErrorIs(t, v.Save(nil, []byte("pw")), ErrEncryption)
	assert.NoFileExists(t, v.Filename)
}

func TestVault_LogsWithoutSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	v := newTestVault(t, WithLogger(zap.New(core).Sugar()))

	require.NoError(t, v.Save(sampleStore(), []byte("hunter2")))
	_, err := v.Load([]byte("hunter2"))
	require.NoError(t, err)

	assert.NotZero(t, logs.FilterMessage("password hashed").Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, "hunter2")
		}
	}
}

func TestNewVault_Defaults(t *testing.T) {
	v := NewVault("x.vault", WithLogger(nil), WithKDFParams(nil), WithRand(nil))
	assert.Equal(t, DefaultKDFParams(), v.KDF)
	assert.NotNil(t, v.log)
	assert.NotNil(t, v.rand)
}
