// pkg/chunk/cache.go

package chunk

import (
	"io"

	"RaFS/pkg/object"
	"RaFS/pkg/utils"
)

var logger = utils.GetLogger("rafs")

const (
	DefaultChunkSize = 4096
	// A write more than one chunk past the end extends the file to pos-1 and
	// expects pos to fall inside the next window, so a chunk holds at least 2 bytes.
	minChunkSize = 16
	maxChunkSize = 64 << 20

	noWrite = -1
)

// Config for the chunk cache.
type Config struct {
	ChunkSize int
}

// Cache makes a Storage look like a random access file. It keeps one chunk of
// the file in memory and writes it back only when another chunk is needed,
// when the length changes or on Close.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	store     object.Storage
	chunkSize int

	current        *Chunk
	maxWriteOffset int // offset in current of the last byte written, noWrite if clean
	lastRead       int64
	lastWrite      int64
	closed         bool
	stats          *Stats
}

// NewCache returns a cache over store. The cache owns store and closes it on Close.
func NewCache(store object.Storage, conf *Config) *Cache {
	cs := DefaultChunkSize
	if conf != nil && conf.ChunkSize > 0 {
		cs = conf.ChunkSize
	}
	if cs < minChunkSize {
		logger.Warnf("chunk size %d is too small, use %d", cs, minChunkSize)
		cs = minChunkSize
	}
	if cs > maxChunkSize {
		logger.Warnf("chunk size %d is too large, use %d", cs, maxChunkSize)
		cs = maxChunkSize
	}
	return &Cache{
		store:          store,
		chunkSize:      cs,
		maxWriteOffset: noWrite,
		lastRead:       -1,
		lastWrite:      -1,
		stats:          newStats(),
	}
}

func (c *Cache) String() string {
	return c.store.String()
}

func (c *Cache) ChunkSize() int {
	return c.chunkSize
}

func (c *Cache) LastReadPosition() int64 {
	return c.lastRead
}

func (c *Cache) LastWritePosition() int64 {
	return c.lastWrite
}

// IsDirty reports whether the resident chunk has writes that are not saved yet.
func (c *Cache) IsDirty() bool {
	return c.current != nil && c.current.isDirty
}

// Contains reports whether pos is inside the resident chunk.
func (c *Cache) Contains(pos int64) bool {
	return c.current != nil && c.current.contains(pos)
}

// Resident returns the chunk held in memory, or nil.
func (c *Cache) Resident() *Chunk {
	return c.current
}

func (c *Cache) Closed() bool {
	return c.closed
}

// Stats returns a snapshot of the storage calls made so far.
func (c *Cache) Stats() Stats {
	return c.stats.clone()
}

func (c *Cache) remoteLength() (int64, error) {
	c.stats.Lengths++
	return c.store.Length()
}

// readChunkFor returns the chunk covering pos. Past the end of the file it is a
// new, empty chunk starting at the current length.
func (c *Cache) readChunkFor(pos int64) (*Chunk, error) {
	length, err := c.remoteLength()
	if err != nil {
		return nil, err
	}
	if length == 0 || pos >= length {
		c.stats.NewChunks++
		return newChunk(length, c.chunkSize), nil
	}
	index := pos / int64(c.chunkSize)
	start := index * int64(c.chunkSize)
	data, err := c.store.FetchChunk(start, c.chunkSize)
	if err != nil {
		return nil, err
	}
	c.stats.Fetches++
	c.stats.FetchedBytes += int64(len(data))
	c.stats.Fetched.Add(uint64(index))
	logger.Tracef("fetch chunk %d of %s: %d bytes", index, c.store, len(data))
	return fetchedChunk(index, start, data), nil
}

// loadChunkFor saves the resident chunk if needed and replaces it by the one covering pos.
func (c *Cache) loadChunkFor(pos int64) error {
	if c.current != nil {
		if c.current.isDirty {
			if err := c.Save(); err != nil {
				return err
			}
		} else if c.maxWriteOffset != noWrite {
			return c.invariant("clean chunk at %d has pending write at offset %d", c.current.start, c.maxWriteOffset)
		}
	}
	ck, err := c.readChunkFor(pos)
	if err != nil {
		return err
	}
	c.current = ck
	return nil
}

// ReadByteAt returns the byte at pos, or io.EOF when there is none. After Close
// it returns io.EOF without touching the storage.
func (c *Cache) ReadByteAt(pos int64) (byte, error) {
	if pos < 0 {
		return 0, ErrInvalidArgument
	}
	if c.closed {
		return 0, io.EOF
	}
	if c.current == nil || !c.current.contains(pos) {
		if err := c.loadChunkFor(pos); err != nil {
			return 0, err
		}
	}
	ck := c.current
	offset := pos - ck.start
	if ck.isNew {
		// only what was written exists past the remote end
		if offset >= 0 && offset < int64(c.maxWriteOffset+1) {
			c.lastRead = pos
			return ck.data[offset], nil
		}
		return 0, io.EOF
	}
	if !ck.contains(pos) {
		return 0, c.invariant("chunk at %d with %d bytes does not contain %d", ck.start, len(ck.data), pos)
	}
	c.lastRead = pos
	return ck.data[offset], nil
}

// WriteByteAt sets the byte at pos. Writing more than one chunk past the end of
// the file first extends the file up to pos.
func (c *Cache) WriteByteAt(pos int64, b byte) error {
	if pos < 0 {
		return ErrInvalidArgument
	}
	if c.closed {
		return ErrClosed
	}
	if c.current == nil || !c.current.contains(pos) {
		if err := c.loadChunkFor(pos); err != nil {
			return err
		}
	}
	offset := pos - c.current.start
	if offset >= int64(len(c.current.data)) {
		if !c.current.isNew {
			return c.invariant("chunk at %d with %d bytes does not contain %d", c.current.start, len(c.current.data), pos)
		}
		if err := c.SetLength(pos - 1); err != nil {
			return err
		}
		if err := c.loadChunkFor(pos); err != nil {
			return err
		}
		offset = pos - c.current.start
		if offset < 0 || offset >= int64(len(c.current.data)) {
			return c.invariant("no chunk covers %d after extending to %d", pos, pos-1)
		}
	}
	ck := c.current
	ck.data[offset] = b
	ck.isDirty = true
	off := int(offset)
	if off > c.maxWriteOffset {
		c.maxWriteOffset = off
	}
	if off+1 > ck.size {
		ck.size = off + 1
	}
	c.lastWrite = pos
	return nil
}

// Length returns the length of the file including bytes appended but not saved yet.
func (c *Cache) Length() (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	length, err := c.remoteLength()
	if err != nil {
		return 0, err
	}
	if c.current != nil && c.current.isNew && c.maxWriteOffset != noWrite {
		length += int64(c.maxWriteOffset + 1)
	}
	return length, nil
}

// SetLength grows or shrinks the file to n. Pending writes are saved first.
// Shrinking may fail with object.ErrUnsupportedShrink, leaving the file as it was.
func (c *Cache) SetLength(n int64) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if c.closed {
		return ErrClosed
	}
	if c.maxWriteOffset != noWrite {
		if err := c.Save(); err != nil {
			return err
		}
	}
	c.current = nil
	return c.resize(n)
}

func (c *Cache) resize(n int64) error {
	length, err := c.remoteLength()
	if err != nil {
		return err
	}
	switch {
	case n < length:
		c.stats.Shrinks++
		logger.Debugf("shrink %s from %d to %d", c.store, length, n)
		return c.store.Shrink(n)
	case n > length:
		c.stats.Grows++
		logger.Debugf("grow %s from %d to %d", c.store, length, n)
		return c.store.Grow(n)
	}
	return nil
}

// Save writes the resident chunk back if it is dirty.
func (c *Cache) Save() error {
	ck := c.current
	if ck == nil {
		return nil
	}
	if !ck.isNew && ck.size != len(ck.data) {
		return c.invariant("chunk at %d holds %d bytes in a buffer of %d", ck.start, ck.size, len(ck.data))
	}
	if !ck.isDirty {
		return nil
	}
	if ck.isNew || ck.index == 0 {
		if n := c.maxWriteOffset + 1; n < len(ck.data) {
			data := make([]byte, n)
			copy(data, ck.data)
			ck.data = data
			ck.size = n
		}
	}
	if err := c.store.PushChunk(ck.start, ck.data); err != nil {
		return err
	}
	c.stats.Pushes++
	c.stats.PushedBytes += int64(len(ck.data))
	c.stats.Flushed.Add(uint64(ck.start / int64(c.chunkSize)))
	logger.Tracef("push %d bytes at %d of %s", len(ck.data), ck.start, c.store)
	ck.isDirty = false
	ck.isNew = false
	c.maxWriteOffset = noWrite
	return nil
}

// Close saves pending writes and releases the storage. The storage is released
// even when saving fails; that error is returned. Closing twice is a no-op.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	err := c.Save()
	if err != nil {
		logger.Warnf("save %s on close: %s", c.store, err)
	}
	c.closed = true
	c.current = nil
	if cerr := c.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadAt reads len(p) bytes starting at off. It returns io.EOF when the file
// ends before p is filled.
func (c *Cache) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidArgument
	}
	for i := range p {
		b, err := c.ReadByteAt(off + int64(i))
		if err != nil {
			return i, err
		}
		p[i] = b
	}
	return len(p), nil
}

// WriteAt writes p starting at off.
func (c *Cache) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidArgument
	}
	for i, b := range p {
		if err := c.WriteByteAt(off+int64(i), b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

var (
	_ io.ReaderAt = &Cache{}
	_ io.WriterAt = &Cache{}
	_ io.Closer   = &Cache{}
)
