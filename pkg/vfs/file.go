// pkg/vfs/file.go

package vfs

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"RaFS/pkg/chunk"
	"RaFS/pkg/utils"
)

var logger = utils.GetLogger("rafs")

// File is an open file with a file pointer, built on a chunk cache. It behaves
// like an *os.File opened for reading and writing: seeking past the end is
// allowed, the gap is filled when written past, and Truncate leaves the pointer
// alone.
//
// Unlike the cache below it, a File may be used from several goroutines.
type File struct {
	mu     sync.Mutex
	name   string
	cache  *chunk.Cache
	pos    int64
	closed bool
}

// Open returns a File positioned at 0. The File owns cache.
func Open(cache *chunk.Cache) *File {
	f := &File{name: cache.String(), cache: cache}
	logit(utils.Clock(), f.name, "open (chunk size %d)", cache.ChunkSize())
	return f
}

func (f *File) Name() string {
	return f.name
}

// ChunkSize returns the size of the window the file keeps in memory.
func (f *File) ChunkSize() int {
	return f.cache.ChunkSize()
}

// Pointer returns the current file pointer.
func (f *File) Pointer() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

// Read reads up to len(p) bytes at the file pointer and advances it. At the
// end of the file it returns 0, io.EOF.
func (f *File) Read(p []byte) (n int, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "read (%d,%d): (%d,%v)", f.pos-int64(n), len(p), n, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err = f.cache.ReadAt(p, f.pos)
	f.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt reads len(p) bytes at off without moving the pointer. It returns io.EOF
// when fewer bytes are available.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "pread (%d,%d): (%d,%v)", off, len(p), n, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	if off < 0 {
		return 0, errors.Wrapf(chunk.ErrInvalidArgument, "negative offset %d", off)
	}
	return f.cache.ReadAt(p, off)
}

// Write writes p at the file pointer and advances it.
func (f *File) Write(p []byte) (n int, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "write (%d,%d): (%d,%v)", f.pos-int64(n), len(p), n, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	n, err = f.cache.WriteAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

// WriteAt writes p at off without moving the pointer.
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "pwrite (%d,%d): (%d,%v)", off, len(p), n, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	if off < 0 {
		return 0, errors.Wrapf(chunk.ErrInvalidArgument, "negative offset %d", off)
	}
	return f.cache.WriteAt(p, off)
}

// Seek sets the file pointer. Positions past the end are allowed, negative ones are not.
func (f *File) Seek(offset int64, whence int) (pos int64, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "seek (%d,%d): (%d,%v)", offset, whence, pos, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.pos + offset
	case io.SeekEnd:
		var length int64
		if length, err = f.cache.Length(); err != nil {
			return f.pos, err
		}
		pos = length + offset
	default:
		return f.pos, errors.Wrapf(chunk.ErrInvalidArgument, "whence %d", whence)
	}
	if pos < 0 {
		return f.pos, errors.Wrapf(chunk.ErrInvalidArgument, "negative position %d", pos)
	}
	f.pos = pos
	return pos, nil
}

// Truncate changes the length of the file to n. The pointer is not moved.
func (f *File) Truncate(n int64) (err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "truncate (%d): %v", n, err) }()
	if f.closed {
		return chunk.ErrClosed
	}
	return f.cache.SetLength(n)
}

// Length returns the length of the file, including writes not saved yet.
func (f *File) Length() (length int64, err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "length: (%d,%v)", length, err) }()
	if f.closed {
		return 0, chunk.ErrClosed
	}
	return f.cache.Length()
}

// Sync writes pending changes to the storage.
func (f *File) Sync() (err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "sync: %v", err) }()
	if f.closed {
		return chunk.ErrClosed
	}
	return f.cache.Save()
}

// Stats returns the storage calls made for this file so far.
func (f *File) Stats() chunk.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache.Stats()
}

// Close saves pending changes and releases the storage. Every later call fails with chunk.ErrClosed.
func (f *File) Close() (err error) {
	start := utils.Clock()
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { logit(start, f.name, "close: %v", err) }()
	if f.closed {
		return chunk.ErrClosed
	}
	f.closed = true
	return f.cache.Close()
}

var _ io.ReadWriteSeeker = &File{}
var _ io.ReaderAt = &File{}
var _ io.WriterAt = &File{}
var _ io.Closer = &File{}
