// pkg/vfs/accesslog.go

package vfs

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"RaFS/pkg/utils"
)

const slowOperation = time.Second * 10

type logReader struct {
	sync.Mutex
	buffer chan []byte
	last   []byte
}

var (
	readerLock sync.Mutex
	readers    map[uint64]*logReader
	nextReader uint64
)

func init() {
	readers = make(map[uint64]*logReader)
}

func logit(start time.Duration, name string, format string, args ...interface{}) {
	used := utils.Clock() - start
	readerLock.Lock()
	defer readerLock.Unlock()
	if len(readers) == 0 && used < slowOperation && !logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	cmd := fmt.Sprintf(format, args...)
	cmd += fmt.Sprintf(" <%.6f>", used.Seconds())
	if used >= slowOperation {
		logger.Infof("slow operation: %s %s", name, cmd)
	} else {
		logger.Tracef("%s %s", name, cmd)
	}
	if len(readers) == 0 {
		return
	}
	ts := utils.Now().Format("2006.01.02 15:04:05.000000")
	line := []byte(fmt.Sprintf("%s [%s] %s\n", ts, name, cmd))
	for _, r := range readers {
		select {
		case r.buffer <- line:
		default:
		}
	}
}

// OpenAccessLog subscribes to the operations of every open File and returns
// the id to read them with.
func OpenAccessLog() uint64 {
	readerLock.Lock()
	defer readerLock.Unlock()
	nextReader++
	readers[nextReader] = &logReader{buffer: make(chan []byte, 10240)}
	return nextReader
}

func CloseAccessLog(id uint64) {
	readerLock.Lock()
	defer readerLock.Unlock()
	delete(readers, id)
}

// ReadAccessLog fills buf with logged lines, waiting up to timeout for the first one.
// It returns 0 when nothing was logged in time.
func ReadAccessLog(id uint64, buf []byte, timeout time.Duration) int {
	readerLock.Lock()
	r, ok := readers[id]
	readerLock.Unlock()
	if !ok {
		return 0
	}
	r.Lock()
	defer r.Unlock()
	var n int
	if len(r.last) > 0 {
		n = copy(buf, r.last)
		r.last = r.last[n:]
	}
	var t = time.NewTimer(timeout)
	defer t.Stop()
	for n < len(buf) {
		var line []byte
		if n == 0 {
			select {
			case line = <-r.buffer:
			case <-t.C:
				return n
			}
		} else {
			select {
			case line = <-r.buffer:
			default:
				return n
			}
		}
		l := copy(buf[n:], line)
		n += l
		if l < len(line) {
			r.last = line[l:]
			return n
		}
	}
	return n
}
