package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get(KeyToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(KeyToken, "abc"))
	v, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Set(KeyToken, "def"))
	v, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Delete(KeyToken))
	_, err = s.Get(KeyToken)
	require.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	require.NoError(t, s.Delete(KeyToken))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	exerciseStore(t, NewFile(path))
}

func TestFile_SharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	a := NewFile(path)
	b := NewFile(path)

	require.NoError(t, a.Set(KeyUser, `{"role":"admin"}`))
	v, err := b.Get(KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"role":"admin"}`, v)

	require.NoError(t, b.Delete(KeyUser))
	_, err = a.Get(KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, NewFile(path).Set(KeyToken, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFile(path).Get(KeyToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyring("adminctl-test"))
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	path := filepath.Join(t.TempDir(), "s.json")
	s, err = Open(BackendFile, path)
	require.NoError(t, err)
	require.IsType(t, &File{}, s)
	assert.Equal(t, path, s.(*File).Path())

	s, err = Open(BackendKeyring, "")
	require.NoError(t, err)
	assert.IsType(t, &Keyring{}, s)

	_, err = Open("cookies", "")
	assert.Error(t, err)
}
