// pkg/object/session.go

package object

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

type session[T io.Closer] struct {
	conn T
	refs int
}

// registry shares one connection per key between every storage that acquired it.
// The connection is dialed by the first acquire and closed by the last release.
type registry[T io.Closer] struct {
	sync.Mutex
	ss map[string]*session[T]
}

func newRegistry[T io.Closer]() *registry[T] {
	return &registry[T]{ss: make(map[string]*session[T])}
}

func (r *registry[T]) acquire(key string, dial func() (T, error)) (T, error) {
	r.Lock()
	defer r.Unlock()
	if s, ok := r.ss[key]; ok {
		s.refs++
		return s.conn, nil
	}
	conn, err := dial()
	if err != nil {
		var zero T
		return zero, err
	}
	r.ss[key] = &session[T]{conn: conn, refs: 1}
	logger.Debugf("connected to %s", key)
	return conn, nil
}

func (r *registry[T]) release(key string) error {
	r.Lock()
	defer r.Unlock()
	s, ok := r.ss[key]
	if !ok {
		return errors.Errorf("release of unknown session %s", key)
	}
	s.refs--
	if s.refs > 0 {
		return nil
	}
	delete(r.ss, key)
	logger.Debugf("disconnect from %s", key)
	return s.conn.Close()
}

func (r *registry[T]) refs(key string) int {
	r.Lock()
	defer r.Unlock()
	if s, ok := r.ss[key]; ok {
		return s.refs
	}
	return 0
}
