package vault

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Vault binds a vault file path to the parameters used to read and write it.
// It holds no key or entry state between calls; every Load and Save derives
// the key from the password again.
type Vault struct {
	Filename string
	KDF      *KDFParams
	log      *zap.SugaredLogger
	rand     io.Reader
}

type Option func(*Vault)

// WithLogger routes progress and diagnostics to l.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(v *Vault) {
		if l != nil {
			v.log = l
		}
	}
}

// WithKDFParams overrides the Argon2id parameters. Vaults written with
// non-default parameters can only be opened with the same parameters.
func WithKDFParams(p *KDFParams) Option {
	return func(v *Vault) {
		if p != nil {
			v.KDF = p
		}
	}
}

// WithRand replaces the entropy source for salts and nonces. It must be a CSPRNG.
func WithRand(r io.Reader) Option {
	return func(v *Vault) {
		if r != nil {
			v.rand = r
		}
	}
}

func NewVault(filename string, opts ...Option) *Vault {
	v := &Vault{
		Filename: filename,
		KDF:      DefaultKDFParams(),
		log:      zap.NewNop().Sugar(),
		rand:     rand.Reader,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vault) deriveKey(password, salt []byte) ([]byte, error) {
	v.log.Debugw("hashing password",
		"time", v.KDF.Time, "memory_kib", v.KDF.Memory, "threads", v.KDF.Threads)
	start := time.Now()
	key, err := DeriveKey(password, salt, v.KDF)
	if err != nil {
		return nil, err
	}
	v.log.Infow("password hashed", "took", time.Since(start))
	return key, nil
}

// Save encrypts store under a key derived from password and a fresh salt and
// replaces the vault file. The existing file is left untouched on failure.
func (v *Vault) Save(store *Store, password []byte) error {
	if store == nil {
		return newError("save", ErrEncryption, fmt.Errorf("nil store"))
	}
	pt := Encode(store)
	defer Zero(pt)

	salt, err := randBytes(v.rand, SaltLen)
	if err != nil {
		return newError("save", ErrEncryption, fmt.Errorf("generate salt: %w", err))
	}

	key, err := v.deriveKey(password, salt)
	if err != nil {
		return err
	}
	defer Zero(key)

	v.log.Debugw("encrypting", "entries", len(store.Entries))
	sealed, err := encrypt(v.rand, key, pt)
	if err != nil {
		return err
	}

	v.log.Debugw("writing vault", "path", v.Filename)
	if err := atomicWriteFile(v.Filename, joinFile(salt, sealed), filePerm); err != nil {
		return newError("save", ErrIO, err)
	}
	return nil
}

// Load reads and decrypts the vault file. A wrong password and a corrupted
// file are both reported as ErrAuthFailed.
func (v *Vault) Load(password []byte) (*Store, error) {
	raw, err := os.ReadFile(v.Filename)
	if err != nil {
		return nil, newError("load", ErrIO, err)
	}

	salt, sealed, err := splitFile(raw)
	if err != nil {
		return nil, err
	}

	key, err := v.deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer Zero(key)

	pt, err := Decrypt(key, sealed)
	if err != nil {
		return nil, err
	}
	defer Zero(pt)

	store, err := Decode(pt)
	if err != nil {
		return nil, err
	}
	v.log.Debugw("vault opened", "path", v.Filename, "entries", len(store.Entries))
	return store, nil
}
