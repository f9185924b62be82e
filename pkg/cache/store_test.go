package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(v payload, calls *int) func() (payload, error) {
	return func() (payload, error) {
		*calls++
		return v, nil
	}
}

func TestComputeOrLoadCachesResult(t *testing.T) {
	src := filepath.Join(t.TempDir(), "model.obj")
	want := payload{Name: "model", Words: []uint32{5, 6}}

	for _, store := range []Store{DefaultStore(), {Enabled: true, AtomicWrites: true}} {
		calls := 0
		os.Remove(src + GridSuffix)

		got, err := ComputeOrLoad(store, src, GridSuffix, counter(want, &calls))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 1, calls)
		assert.FileExists(t, src+GridSuffix)

		got, err = ComputeOrLoad(store, src, GridSuffix, counter(payload{Name: "other"}, &calls))
		require.NoError(t, err)
		assert.Equal(t, want, got, "second call should read the cache")
		assert.Equal(t, 1, calls, "compute should not run on a cache hit")
	}
}

func TestComputeOrLoadAtomicLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.stl")
	_, err := ComputeOrLoad(Store{Enabled: true, AtomicWrites: true}, src, RawSuffix, func() ([]byte, error) {
		return []byte("solid a"), nil
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.stl"+RawSuffix, entries[0].Name())
}

func TestComputeOrLoadDisabled(t *testing.T) {
	src := filepath.Join(t.TempDir(), "model.obj")
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := ComputeOrLoad(Store{}, src, GridSuffix, counter(payload{Name: "m"}, &calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.NoFileExists(t, src+GridSuffix)
}

func TestComputeOrLoadCorruptCacheIsFatal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "model.obj")
	require.NoError(t, os.WriteFile(src+GridSuffix, []byte("garbage that is long enough"), 0o644))

	calls := 0
	_, err := ComputeOrLoad(DefaultStore(), src, GridSuffix, counter(payload{}, &calls))
	assert.ErrorIs(t, err, ErrDecompress)
	assert.Zero(t, calls, "a corrupt cache must not fall back to compute")
}

func TestComputeOrLoadComputeError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "model.obj")
	boom := errors.New("boom")
	_, err := ComputeOrLoad(DefaultStore(), src, GridSuffix, func() (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, src+GridSuffix)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load[payload](filepath.Join(t.TempDir(), "nope"+GridSuffix))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "x"+RawSuffix)
	for _, s := range []Store{DefaultStore(), {Enabled: true, AtomicWrites: true}} {
		assert.Error(t, s.Save(path, payload{}))
	}
}
