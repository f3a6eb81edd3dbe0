// pkg/object/interface.go

package object

// Storage is the per-file backend used by the chunk cache. It only knows how to
// read and write byte ranges at an offset; growing and shrinking the file are
// separate primitives because many remote protocols have no random-write or
// truncate call of their own.
type Storage interface {
	String() string
	// FetchChunk reads up to capacity bytes starting at off. It returns fewer
	// bytes (possibly none) when the file ends before off+capacity.
	FetchChunk(off int64, capacity int) ([]byte, error)
	// PushChunk writes data at off, overwriting whatever is in that range.
	PushChunk(off int64, data []byte) error
	// Grow extends the file to newLength by writing one filler byte at newLength-1.
	Grow(newLength int64) error
	// Shrink truncates the file to newLength. It returns ErrUnsupportedShrink
	// when the remote side refuses to truncate.
	Shrink(newLength int64) error
	// Length returns the length currently reported by the remote side.
	Length() (int64, error)
	// Close releases the remote handle. It must be called exactly once.
	Close() error
}

// Remover is implemented by storages that can delete the file they point to.
type Remover interface {
	Remove() error
}
