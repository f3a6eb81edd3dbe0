// pkg/chunk/stats.go

package chunk

import (
	"github.com/RoaringBitmap/roaring/roaring64"
)

// Stats counts the storage calls made by a Cache.
type Stats struct {
	Fetches      int64
	FetchedBytes int64
	Pushes       int64
	PushedBytes  int64
	Grows        int64
	Shrinks      int64
	Lengths      int64
	NewChunks    int64

	// Indexes of the chunks fetched from and flushed to the storage.
	Fetched *roaring64.Bitmap
	Flushed *roaring64.Bitmap
}

func newStats() *Stats {
	return &Stats{Fetched: roaring64.NewBitmap(), Flushed: roaring64.NewBitmap()}
}

func (s *Stats) clone() Stats {
	c := *s
	c.Fetched = s.Fetched.Clone()
	c.Flushed = s.Flushed.Clone()
	return c
}

// Calls returns the number of storage calls of any kind.
func (s Stats) Calls() int64 {
	return s.Fetches + s.Pushes + s.Grows + s.Shrinks + s.Lengths
}
