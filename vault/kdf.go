package vault

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DefaultKDFParams are the Argon2id parameters of the file format. They are not
// stored in the vault, so changing them makes existing vaults unreadable.
func DefaultKDFParams() *KDFParams {
	return &KDFParams{Time: 5, Memory: 32 * 1024, Threads: 6, KeyLen: KeyLen}
}

func (p *KDFParams) validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("missing parameters")
	case p.Time == 0:
		return fmt.Errorf("time cost must be positive")
	case p.Threads == 0:
		return fmt.Errorf("parallelism must be positive")
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("memory %d KiB below minimum for %d lanes", p.Memory, p.Threads)
	case p.KeyLen == 0:
		return fmt.Errorf("key length must be positive")
	}
	return nil
}

// DeriveKey stretches password with Argon2id. It is deterministic in
// (password, salt, params) and intentionally slow.
func DeriveKey(password, salt []byte, params *KDFParams) ([]byte, error) {
	if len(salt) != SaltLen {
		return nil, newError("derive key", ErrKeyDerivation, fmt.Errorf("salt must be %d bytes, got %d", SaltLen, len(salt)))
	}
	if err := params.validate(); err != nil {
		return nil, newError("derive key", ErrKeyDerivation, err)
	}
	key := argon2.IDKey(password, salt, params.Time, params.Memory, params.Threads, params.KeyLen)
	if uint32(len(key)) != params.KeyLen {
		return nil, newError("derive key", ErrKeyDerivation, fmt.Errorf("derived key has unexpected length %d", len(key)))
	}
	return key, nil
}
