// pkg/object/bwlimit.go

package object

import (
	"fmt"

	"github.com/juju/ratelimit"
)

type bwlimit struct {
	Storage
	upLimit   *ratelimit.Bucket
	downLimit *ratelimit.Bucket
}

// NewLimited limits the bytes per second pushed to (up) and fetched from (down) s.
// A limit <= 0 means unlimited.
func NewLimited(s Storage, up, down int64) Storage {
	bw := &bwlimit{s, nil, nil}
	if up > 0 {
		// there are overheads coming from SSH/TCP/IP
		bw.upLimit = ratelimit.NewBucketWithRate(float64(up)*0.85, up)
	}
	if down > 0 {
		bw.downLimit = ratelimit.NewBucketWithRate(float64(down)*0.85, down)
	}
	return bw
}

func (p *bwlimit) String() string {
	return fmt.Sprintf("%s(limited)", p.Storage)
}

func (p *bwlimit) FetchChunk(off int64, capacity int) ([]byte, error) {
	buf, err := p.Storage.FetchChunk(off, capacity)
	if p.downLimit != nil && len(buf) > 0 {
		p.downLimit.Wait(int64(len(buf)))
	}
	return buf, err
}

func (p *bwlimit) PushChunk(off int64, data []byte) error {
	if p.upLimit != nil && len(data) > 0 {
		p.upLimit.Wait(int64(len(data)))
	}
	return p.Storage.PushChunk(off, data)
}

func (p *bwlimit) Grow(newLength int64) error {
	if p.upLimit != nil {
		p.upLimit.Wait(1)
	}
	return p.Storage.Grow(newLength)
}

func (p *bwlimit) Remove() error {
	if r, ok := p.Storage.(Remover); ok {
		return r.Remove()
	}
	return fmt.Errorf("%s does not support Remove()", p.Storage)
}

var _ Storage = &bwlimit{}
