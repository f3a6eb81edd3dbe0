// pkg/object/encrypt_test.go

package object

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncrypted(t *testing.T) {
	m := NewMem("object/" + t.Name())
	defer m.Remove()
	s, err := NewEncrypted(m, "secret")
	require.NoError(t, err)
	assert.Equal(t, "mem://object/TestEncrypted(encrypted)", s.String())
	testStorage(t, s)
	assert.NotEqual(t, []byte("hello"), m.Bytes())

	_, err = NewEncrypted(m, "")
	assert.Error(t, err)
}

func TestEncryptedOffsets(t *testing.T) {
	plain := bytes.Repeat([]byte("random access "), 10)
	m := NewMem("object/" + t.Name())
	defer m.Remove()
	s, err := NewEncrypted(m, "secret")
	require.NoError(t, err)
	require.NoError(t, s.PushChunk(0, plain))
	whole := m.Bytes()
	require.NoError(t, m.Shrink(0))

	// the same bytes pushed piece by piece at unaligned offsets
	for _, r := range [][2]int{{0, 5}, {5, 21}, {21, 33}, {33, 64}, {64, len(plain)}} {
		piece := append([]byte(nil), plain[r[0]:r[1]]...)
		require.NoError(t, s.PushChunk(int64(r[0]), piece))
		assert.Equal(t, plain[r[0]:r[1]], piece, "caller buffer is not modified")
	}
	assert.Equal(t, whole, m.Bytes())

	for _, off := range []int64{0, 1, 15, 16, 17, 100} {
		buf, err := s.FetchChunk(off, 30)
		require.NoError(t, err)
		end := int(off) + 30
		if end > len(plain) {
			end = len(plain)
		}
		assert.Equal(t, plain[off:end], buf, "offset %d", off)
	}
}

func TestEncryptedKeys(t *testing.T) {
	plain := []byte("the same content")
	raw := func(name, passphrase string) []byte {
		m := NewMem(name)
		defer m.Remove()
		s, err := NewEncrypted(m, passphrase)
		require.NoError(t, err)
		require.NoError(t, s.PushChunk(0, plain))
		return m.Bytes()
	}
	a := raw("object/enc-a", "secret")
	assert.NotEqual(t, plain, a)
	assert.NotEqual(t, a, raw("object/enc-a", "other"))
	// the keystream does not depend on where the file lives
	assert.Equal(t, a, raw("object/enc-b", "secret"))

	m := NewMem("object/" + t.Name())
	defer m.Remove()
	s, err := NewEncrypted(m, "secret")
	require.NoError(t, err)
	require.NoError(t, s.PushChunk(0, plain))
	wrong, err := NewEncrypted(NewMem("object/"+t.Name()), "wrong")
	require.NoError(t, err)
	buf, err := wrong.FetchChunk(0, 100)
	require.NoError(t, err)
	assert.NotEqual(t, plain, buf)
}

func TestEncryptedGrow(t *testing.T) {
	m := NewMem("object/" + t.Name())
	defer m.Remove()
	s, err := NewEncrypted(m, "secret")
	require.NoError(t, err)
	require.NoError(t, s.Grow(40))
	buf, err := s.FetchChunk(39, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf)
	require.NoError(t, s.(Remover).Remove())
}

func TestEncryptedMoved(t *testing.T) {
	plain := bytes.Repeat([]byte("moved around "), 5)
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "file")
	s, err := NewEncrypted(NewFile(first, false), "secret")
	require.NoError(t, err)
	require.NoError(t, s.PushChunk(0, plain))
	require.NoError(t, s.Close())

	second := filepath.Join(dir, "b")
	require.NoError(t, os.Rename(filepath.Dir(first), second))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	for _, rawurl := range []string{"b/file", "file://" + filepath.ToSlash(filepath.Join(second, "file"))} {
		blob, err := CreateStorage(rawurl, &Config{ReadOnly: true})
		require.NoError(t, err)
		s, err := NewEncrypted(blob, "secret")
		require.NoError(t, err)
		buf, err := s.FetchChunk(0, 100)
		require.NoError(t, err)
		assert.Equal(t, plain, buf, rawurl)
		require.NoError(t, s.Close())
	}
}
