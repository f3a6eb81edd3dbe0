// pkg/chunk/errors.go

package chunk

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned for negative positions and lengths.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed is returned by mutating calls after Close.
	ErrClosed = errors.New("cache is closed")
	// ErrInvariant means the cache found itself in a state it can not be in.
	// It is a bug in the cache, never a transient condition.
	ErrInvariant = errors.New("chunk cache invariant violated")
)

// invariant logs and returns an ErrInvariant carrying the description and a stack trace.
func (c *Cache) invariant(format string, args ...interface{}) error {
	err := errors.Wrapf(ErrInvariant, format, args...)
	logger.Errorf("%s: %+v", c.store, err)
	return err
}
