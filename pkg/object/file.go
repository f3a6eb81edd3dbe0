// pkg/object/file.go

package object

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

type fileStorage struct {
	path     string
	readOnly bool
	fp       *os.File
	closed   bool
}

func (f *fileStorage) String() string {
	return fmt.Sprintf("file://%s", f.path)
}

// handle opens the local file on first use.
func (f *fileStorage) handle() (*os.File, error) {
	if f.closed {
		return nil, errClosed
	}
	if f.fp != nil {
		return f.fp, nil
	}
	var fp *os.File
	var err error
	if f.readOnly {
		fp, err = os.Open(f.path)
	} else {
		if err = os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return nil, unavailable("mkdir", err)
		}
		fp, err = os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0644)
	}
	if err != nil {
		return nil, unavailable("open", err)
	}
	f.fp = fp
	return fp, nil
}

func (f *fileStorage) FetchChunk(off int64, capacity int) ([]byte, error) {
	fp, err := f.handle()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, capacity)
	n, err := fp.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, unavailable("read", err)
	}
	return buf[:n], nil
}

func (f *fileStorage) PushChunk(off int64, data []byte) error {
	if f.readOnly {
		return ErrReadOnly
	}
	fp, err := f.handle()
	if err != nil {
		return err
	}
	_, err = fp.WriteAt(data, off)
	return unavailable("write", err)
}

func (f *fileStorage) Grow(newLength int64) error {
	if newLength <= 0 {
		return nil
	}
	return f.PushChunk(newLength-1, []byte{0})
}

func (f *fileStorage) Shrink(newLength int64) error {
	if f.readOnly {
		return ErrReadOnly
	}
	fp, err := f.handle()
	if err != nil {
		return err
	}
	return unavailable("truncate", fp.Truncate(newLength))
}

func (f *fileStorage) Length() (int64, error) {
	fp, err := f.handle()
	if err != nil {
		return 0, err
	}
	fi, err := fp.Stat()
	if err != nil {
		return 0, unavailable("stat", err)
	}
	return fi.Size(), nil
}

func (f *fileStorage) Close() error {
	if f.closed {
		return errClosed
	}
	f.closed = true
	if f.fp != nil {
		return f.fp.Close()
	}
	return nil
}

func (f *fileStorage) Remove() error {
	return os.Remove(f.path)
}

// NewFile returns a storage over the local file at path.
func NewFile(path string, readOnly bool) Storage {
	return &fileStorage{path: path, readOnly: readOnly}
}

func newFile(u *url.URL, conf *Config) (Storage, error) {
	p := filepath.FromSlash(u.Host + u.Path)
	if p == "" {
		return nil, fmt.Errorf("file storage needs a path: %s", u)
	}
	return NewFile(p, conf.ReadOnly), nil
}

func init() {
	Register("file", newFile)
}

var _ Storage = &fileStorage{}
