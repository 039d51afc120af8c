package vault

import (
	"os"
	"path/filepath"
)

const filePerm = 0o600

// atomicWriteFile writes data to a temp file beside path and renames it over
// path, so a crash leaves either the old or the new vault on disk. A symlinked
// path is resolved first so the link keeps pointing at the updated file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != "" {
		path = resolved
	}
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".credvault-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	renamed := false
	defer func() {
		tmpFile.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	renamed = true

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// splitFile separates the header salt from nonce‖ciphertext.
func splitFile(raw []byte) (salt, sealed []byte, err error) {
	if len(raw) < HeaderLen {
		return nil, nil, newError("load", ErrMalformedVault, nil)
	}
	return raw[:SaltLen], raw[SaltLen:], nil
}

func joinFile(salt, sealed []byte) []byte {
	raw := make([]byte, 0, len(salt)+len(sealed))
	raw = append(raw, salt...)
	return append(raw, sealed...)
}
