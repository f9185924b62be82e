package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/voxmesh/pkg/logging"
)

// Cache file suffixes appended to the source path.
const (
	RawSuffix  = ".compressed"
	GridSuffix = ".bitcompressed"
)

// Store controls how cache files are used.
type Store struct {
	// Enabled turns cache reads and writes on. A disabled store always
	// computes and never touches disk.
	Enabled bool
	// AtomicWrites writes to a temporary file in the same directory and
	// renames it into place.
	AtomicWrites bool
}

// DefaultStore is an enabled store with plain writes.
func DefaultStore() Store {
	return Store{Enabled: true}
}

// ComputeOrLoad returns the value cached at source+suffix when that file
// exists; compute is then not called. Otherwise it calls compute, persists
// the result and returns it. A cache file that exists but cannot be read or
// decoded is an error; it is not recomputed.
func ComputeOrLoad[T any](s Store, source, suffix string, compute func() (T, error)) (T, error) {
	if !s.Enabled {
		return compute()
	}
	path := source + suffix
	log := logging.Logger().With("path", path)

	v, err := Load[T](path)
	if err == nil {
		log.Info("cache hit")
		return v, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return v, err
	}

	log.Info("cache miss")
	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := s.Save(path, v); err != nil {
		return v, err
	}
	return v, nil
}

// Save encodes v and writes it to path.
func (s Store) Save(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	if s.AtomicWrites {
		err = writeAtomic(path, data)
	} else {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	logging.Logger().Debug("cache written", "path", path, "bytes", len(data), "atomic", s.AtomicWrites)
	return nil
}

// Load reads and decodes the cache file at path. A missing file yields an
// error matching fs.ErrNotExist.
func Load[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read cache: %w", err)
	}
	if err := Decode(data, &v); err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
