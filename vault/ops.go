package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Create writes a new empty store named name. It refuses to replace an
// existing file unless overwrite is set.
func (v *Vault) Create(name string, password []byte, overwrite bool) (*Store, error) {
	if !overwrite {
		_, err := os.Stat(v.Filename)
		if err == nil {
			return nil, newError("create", ErrVaultExists, fmt.Errorf("%s", v.Filename))
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, newError("create", ErrIO, err)
		}
	}
	store := NewStore(name)
	if err := v.Save(store, password); err != nil {
		return nil, err
	}
	return store, nil
}

func (v *Vault) Open(password []byte) (*Store, error) {
	return v.Load(password)
}

// AddEntry appends e and saves. A duplicate name leaves the file untouched.
func (v *Vault) AddEntry(password []byte, e Entry) (*Store, error) {
	store, err := v.Load(password)
	if err != nil {
		return nil, err
	}
	if store.Index(e.Name) >= 0 {
		return store, newError("add", ErrEntryExists, fmt.Errorf("%q", e.Name))
	}
	store.Append(e)
	if err := v.Save(store, password); err != nil {
		return nil, err
	}
	return store, nil
}

// RemoveEntry deletes the entry named name and saves. A missing name leaves
// the file untouched.
func (v *Vault) RemoveEntry(password []byte, name string) (*Store, error) {
	store, err := v.Load(password)
	if err != nil {
		return nil, err
	}
	if !store.Remove(name) {
		return store, newError("remove", ErrEntryNotFound, fmt.Errorf("%q", name))
	}
	if err := v.Save(store, password); err != nil {
		return nil, err
	}
	return store, nil
}

// UpdateEntry replaces the entry whose name matches e.Name.
func (v *Vault) UpdateEntry(password []byte, e Entry) (*Store, error) {
	store, err := v.Load(password)
	if err != nil {
		return nil, err
	}
	if !store.Replace(e) {
		return store, newError("update", ErrEntryNotFound, fmt.Errorf("%q", e.Name))
	}
	if err := v.Save(store, password); err != nil {
		return nil, err
	}
	return store, nil
}

// ChangePassword re-encrypts the vault under newPassword with a fresh salt.
func (v *Vault) ChangePassword(oldPassword, newPassword []byte) error {
	store, err := v.Load(oldPassword)
	if err != nil {
		return err
	}
	return v.Save(store, newPassword)
}
