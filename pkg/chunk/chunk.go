// pkg/chunk/chunk.go

package chunk

// Chunk is the window of the file kept in memory by a Cache.
//
// A fetched chunk starts on a chunk boundary and holds what the storage returned,
// which is a full chunk except at the end of the file. A new chunk starts at the
// end of the file and holds bytes that do not exist remotely until it is saved.
type Chunk struct {
	start   int64
	index   int64 // start / chunk size, -1 for a new chunk
	data    []byte
	size    int // bytes that are meaningful in data
	isNew   bool
	isDirty bool
}

func newChunk(start int64, capacity int) *Chunk {
	return &Chunk{start: start, index: -1, data: make([]byte, capacity), isNew: true}
}

func fetchedChunk(index int64, start int64, data []byte) *Chunk {
	return &Chunk{start: start, index: index, data: data, size: len(data)}
}

// Start returns the offset of the first byte of the chunk.
func (c *Chunk) Start() int64 { return c.start }

// Capacity returns the length of the buffer.
func (c *Chunk) Capacity() int { return len(c.data) }

// Size returns the number of valid bytes.
func (c *Chunk) Size() int { return c.size }

func (c *Chunk) IsNew() bool   { return c.isNew }
func (c *Chunk) IsDirty() bool { return c.isDirty }

func (c *Chunk) contains(pos int64) bool {
	return pos >= c.start && pos < c.start+int64(len(c.data))
}
