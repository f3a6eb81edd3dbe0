// pkg/object/errors.go

package object

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedShrink is returned by Shrink when the remote side cannot truncate.
	// Callers may decide to tolerate it.
	ErrUnsupportedShrink = errors.New("server does not support this function")
	// ErrUnavailable marks transport failures talking to the remote side.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrReadOnly is returned by mutating calls on a storage opened read-only.
	ErrReadOnly = errors.New("storage is read-only")

	errClosed = errors.New("storage is closed")
)

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %s", e.op, e.err)
}

func (e *unavailableError) Unwrap() error {
	return e.err
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// unavailable wraps a transport error so that errors.Is(err, ErrUnavailable) holds
// while the original cause stays reachable.
func unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUnsupportedShrink) {
		return err
	}
	return &unavailableError{op, err}
}
