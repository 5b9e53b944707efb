package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	return s
}

func TestInit(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	assert.False(t, s.Exists())

	require.NoError(t, s.Init())
	assert.True(t, s.Exists())
	assert.DirExists(t, filepath.Join(root, RepoDir, ObjectsDir))
	assert.DirExists(t, filepath.Join(root, RepoDir, RefsDir))

	// Idempotent.
	require.NoError(t, s.Init())
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.Put([]byte("mean path"))
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	data, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, "mean path", string(data))

	again, err := s.Put([]byte("mean path"))
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	hashes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{hash}, hashes)
}

func TestPut_Uninitialized(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Put([]byte("x"))
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.List()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(strings.Repeat("ab", 32))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get("short")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.Put([]byte("gone"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(hash))

	_, err = s.Get(hash)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.Put([]byte("resolve me"))
	require.NoError(t, err)

	got, err := s.Resolve(hash[:8])
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	_, err = s.Resolve(hash[:3])
	require.Error(t, err)

	other := "0000"
	if hash[:4] == other {
		other = "ffff"
	}
	_, err = s.Resolve(other)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_Ambiguous(t *testing.T) {
	s := newTestStore(t)

	shard := filepath.Join(s.Root, ObjectsDir, "ab")
	require.NoError(t, os.MkdirAll(shard, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shard, "cd01"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(shard, "cd02"), nil, 0o644))

	_, err := s.Resolve("abcd")
	require.ErrorIs(t, err, ErrAmbiguous)

	got, err := s.Resolve("abcd01")
	require.NoError(t, err)
	assert.Equal(t, "abcd01", got)
}

func TestRefs(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Ref("latest")
	require.ErrorIs(t, err, ErrNotFound)

	hash, err := s.Put([]byte("run"))
	require.NoError(t, err)
	require.NoError(t, s.SetRef("latest", hash))

	got, err := s.Ref("latest")
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	for _, bad := range []string{"", "../escape", ".hidden", `a\b`} {
		require.Error(t, s.SetRef(bad, hash), bad)
	}
}
