// pkg/object/mem.go

package object

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

type memItem struct {
	mtime time.Time
	data  []byte
}

type memStore struct {
	sync.Mutex
	items map[string]*memItem
}

var memFiles = &memStore{items: make(map[string]*memItem)}

func (s *memStore) get(name string) *memItem {
	s.Lock()
	defer s.Unlock()
	item, ok := s.items[name]
	if !ok {
		item = &memItem{mtime: time.Now()}
		s.items[name] = item
	}
	return item
}

func (s *memStore) remove(name string) {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.items[name]; ok {
		delete(s.items, name)
		logger.Debugf("remove mem://%s", name)
	}
}

// MemOps counts the calls that reached a Mem storage.
type MemOps struct {
	Fetch  int
	Push   int
	Grow   int
	Shrink int
	Length int
}

// Total returns the number of calls of any kind.
func (o MemOps) Total() int {
	return o.Fetch + o.Push + o.Grow + o.Shrink + o.Length
}

// Mem is a storage kept in process memory. Every Mem opened with the same name
// shares the same bytes, so a fresh handle sees what another one flushed.
type Mem struct {
	name     string
	noShrink bool
	readOnly bool
	closed   bool
	ops      MemOps
}

// NewMem returns a handle on the in-memory file name, creating it if needed.
func NewMem(name string) *Mem {
	memFiles.get(name)
	return &Mem{name: name}
}

// DisableShrink makes Shrink fail with ErrUnsupportedShrink, like a server
// without a truncate command.
func (m *Mem) DisableShrink() *Mem {
	m.noShrink = true
	return m
}

// Ops returns the calls served so far by this handle.
func (m *Mem) Ops() MemOps {
	return m.ops
}

// Bytes returns a copy of the current content of the file.
func (m *Mem) Bytes() []byte {
	item := memFiles.get(m.name)
	memFiles.Lock()
	defer memFiles.Unlock()
	return append([]byte(nil), item.data...)
}

func (m *Mem) String() string {
	return fmt.Sprintf("mem://%s", m.name)
}

func (m *Mem) FetchChunk(off int64, capacity int) ([]byte, error) {
	if m.closed {
		return nil, errClosed
	}
	m.ops.Fetch++
	item := memFiles.get(m.name)
	memFiles.Lock()
	defer memFiles.Unlock()
	l := int64(len(item.data))
	if off >= l {
		return []byte{}, nil
	}
	end := off + int64(capacity)
	if end > l {
		end = l
	}
	buf := make([]byte, end-off)
	copy(buf, item.data[off:end])
	return buf, nil
}

func (m *Mem) PushChunk(off int64, data []byte) error {
	if m.closed {
		return errClosed
	}
	if m.readOnly {
		return ErrReadOnly
	}
	m.ops.Push++
	m.write(off, data)
	return nil
}

func (m *Mem) Grow(newLength int64) error {
	if m.closed {
		return errClosed
	}
	if m.readOnly {
		return ErrReadOnly
	}
	m.ops.Grow++
	if newLength > 0 {
		m.write(newLength-1, []byte{0})
	}
	return nil
}

func (m *Mem) write(off int64, data []byte) {
	item := memFiles.get(m.name)
	memFiles.Lock()
	defer memFiles.Unlock()
	end := off + int64(len(data))
	if end > int64(len(item.data)) {
		nd := make([]byte, end)
		copy(nd, item.data)
		item.data = nd
	}
	copy(item.data[off:], data)
	item.mtime = time.Now()
}

func (m *Mem) Shrink(newLength int64) error {
	if m.closed {
		return errClosed
	}
	if m.readOnly {
		return ErrReadOnly
	}
	m.ops.Shrink++
	if m.noShrink {
		return ErrUnsupportedShrink
	}
	item := memFiles.get(m.name)
	memFiles.Lock()
	defer memFiles.Unlock()
	if newLength < int64(len(item.data)) {
		item.data = append([]byte(nil), item.data[:newLength]...)
		item.mtime = time.Now()
	}
	return nil
}

func (m *Mem) Length() (int64, error) {
	if m.closed {
		return 0, errClosed
	}
	m.ops.Length++
	item := memFiles.get(m.name)
	memFiles.Lock()
	defer memFiles.Unlock()
	return int64(len(item.data)), nil
}

func (m *Mem) Close() error {
	if m.closed {
		return errClosed
	}
	m.closed = true
	return nil
}

func (m *Mem) Remove() error {
	memFiles.remove(m.name)
	return nil
}

func newMem(u *url.URL, conf *Config) (Storage, error) {
	name := strings.TrimPrefix(u.Host+u.Path, "/")
	if name == "" {
		return nil, fmt.Errorf("mem storage needs a name: %s", u)
	}
	m := NewMem(name)
	m.readOnly = conf.ReadOnly
	if u.Query().Get("noshrink") != "" {
		m.DisableShrink()
	}
	return m, nil
}

func init() {
	Register("mem", newMem)
}

var _ Storage = &Mem{}
