// Package cfgstore implements the per-volume local state a session setup
// needs: the cached session key and the last-seen custom-meta fingerprint,
// both stored as files in a host-supplied config directory. Every write here
// is best-effort: callers are expected to treat failures as warnings and
// continue without the cache, per the filter's error taxonomy.
package cfgstore

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/blockvault/aes256filter/internal/fault"
)

const (
	keyFileName    = "key"
	custFPFileName = "custfp"
	keyFileMode    = 0o600
)

// ReadKey reads the cached session key from dir. It returns os.ErrNotExist
// (wrapped, check with errors.Is) if no cache exists, or an IOWarning error
// if the cached file is the wrong size.
func ReadKey(dir string, size int) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(dir, keyFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		return nil, fault.E(fault.IOWarning, "reading key cache", err)
	}

	if len(b) != size {
		return nil, fault.E(fault.IOWarning, "key cache has the wrong size")
	}

	return b, nil
}

// WriteKey writes the session key to dir/key with 0600 permissions,
// best-effort: on any failure the partial file is removed and an IOWarning
// is returned for the caller to log. The caller continues without a cache
// in that case; this is never a fatal error for the session.
func WriteKey(dir string, key []byte) error {
	return writeCacheFile(filepath.Join(dir, keyFileName), key)
}

// RemoveKey deletes the cached session key, if any. Used when a volume
// password change is detected and the stale cache must not be trusted.
func RemoveKey(dir string) error {
	if err := os.Remove(filepath.Join(dir, keyFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fault.E(fault.IOWarning, "removing key cache", err)
	}

	return nil
}

// ReadCustFP reads the last-seen custom-meta fingerprint bytes from dir. It
// returns os.ErrNotExist (wrapped) if no cache exists yet.
func ReadCustFP(dir string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(dir, custFPFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		return nil, fault.E(fault.IOWarning, "reading custom-meta fingerprint cache", err)
	}

	return b, nil
}

// WriteCustFP writes the current custom-meta fingerprint bytes to
// dir/custfp, best-effort.
func WriteCustFP(dir string, data []byte) error {
	return writeCacheFile(filepath.Join(dir, custFPFileName), data)
}

// RemoveCustFP deletes the custom-meta fingerprint cache, if any.
func RemoveCustFP(dir string) error {
	if err := os.Remove(filepath.Join(dir, custFPFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fault.E(fault.IOWarning, "removing custom-meta fingerprint cache", err)
	}

	return nil
}

// writeCacheFile writes data to path with 0600 permissions. If the write or
// the final close fails, the partial file is unlinked so a later read never
// observes a truncated cache.
func writeCacheFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, keyFileMode)
	if err != nil {
		return fault.E(fault.IOWarning, "opening cache file for writing", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return fault.E(fault.IOWarning, "writing cache file", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)

		return fault.E(fault.IOWarning, "closing cache file", err)
	}

	return nil
}
