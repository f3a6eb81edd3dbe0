// pkg/object/file_test.go

package object

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "file")
	s := NewFile(path, false)
	testStorage(t, s)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "file://"+path, s.String())

	require.NoError(t, s.(Remover).Remove())
	require.NoError(t, s.Close())
	assert.Equal(t, errClosed, s.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	s := NewFile(path, true)
	defer s.Close()
	_, err := s.Length()
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)), "got %v", err)
	assert.Equal(t, ErrReadOnly, s.PushChunk(0, []byte("x")))
	assert.Equal(t, ErrReadOnly, s.Shrink(0))
}

func TestCreateStorage(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	s, err := CreateStorage("relative/file", nil)
	require.NoError(t, err)
	require.NoError(t, s.PushChunk(0, []byte("abc")))
	require.NoError(t, s.Close())
	data, err := os.ReadFile(filepath.Join(dir, "relative", "file"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	s, err = CreateStorage("file://"+filepath.ToSlash(filepath.Join(dir, "relative", "file")), nil)
	require.NoError(t, err)
	length, err := s.Length()
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)
	require.NoError(t, s.Close())

	_, err = CreateStorage("nfs://host/file", nil)
	assert.EqualError(t, err, "invalid storage: nfs")
	_, err = CreateStorage("mem://", nil)
	assert.Error(t, err)
	_, err = CreateStorage("redis://localhost/1", nil)
	assert.Error(t, err)

	var got string
	Register("custom", func(u *url.URL, conf *Config) (Storage, error) {
		got = u.Host + u.Path
		return NewMem(got), nil
	})
	s, err = CreateStorage("CUSTOM://some/where", nil)
	require.NoError(t, err)
	defer s.(Remover).Remove()
	assert.Equal(t, "some/where", got)
}
