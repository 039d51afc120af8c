package vault

import (
	"errors"
	"fmt"
)

var (
	ErrIO               = errors.New("vault: i/o error")
	ErrMalformedVault   = errors.New("vault: file too short to hold salt and nonce")
	ErrAuthFailed       = errors.New("vault: wrong password or corrupted file")
	ErrMalformedPayload = errors.New("vault: malformed payload")
	ErrKeyDerivation    = errors.New("vault: key derivation failed")
	ErrEncryption       = errors.New("vault: encryption failed")

	ErrVaultExists   = errors.New("vault: file already exists")
	ErrEntryExists   = errors.New("vault: entry already exists")
	ErrEntryNotFound = errors.New("vault: entry not found")
)

// Error records the operation and failure kind. errors.Is matches both the
// kind sentinel and anything in the wrapped cause chain.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return e.Kind == target }

func newError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the sentinel kind of err, or nil if err did not come from this package.
func KindOf(err error) error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return nil
}
