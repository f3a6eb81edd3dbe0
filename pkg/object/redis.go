// pkg/object/redis.go

package object

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] file key, ARGV[1] new length. Returns the resulting length.
const scriptShrink = `
local n = tonumber(ARGV[1])
local l = redis.call('STRLEN', KEYS[1])
if n >= l then
    return l
end
if n == 0 then
    redis.call('SET', KEYS[1], '')
else
    redis.call('SET', KEYS[1], redis.call('GETRANGE', KEYS[1], 0, n - 1))
end
return n
`

var shrinkScript = redis.NewScript(scriptShrink)

// redisStorage keeps the whole file in one Redis string.
type redisStorage struct {
	rdb      *redis.Client
	addr     string
	key      string
	readOnly bool
	closed   bool
}

func (r *redisStorage) String() string {
	return fmt.Sprintf("redis://%s/%s", r.addr, r.key)
}

func (r *redisStorage) ctx() context.Context {
	return context.Background()
}

func (r *redisStorage) FetchChunk(off int64, capacity int) ([]byte, error) {
	if r.closed {
		return nil, errClosed
	}
	if capacity <= 0 {
		return []byte{}, nil
	}
	buf, err := r.rdb.GetRange(r.ctx(), r.key, off, off+int64(capacity)-1).Bytes()
	if err != nil {
		return nil, unavailable("getrange", err)
	}
	return buf, nil
}

func (r *redisStorage) PushChunk(off int64, data []byte) error {
	if r.closed {
		return errClosed
	}
	if r.readOnly {
		return ErrReadOnly
	}
	return unavailable("setrange", r.rdb.SetRange(r.ctx(), r.key, off, string(data)).Err())
}

func (r *redisStorage) Grow(newLength int64) error {
	if newLength <= 0 {
		return nil
	}
	return r.PushChunk(newLength-1, []byte{0})
}

func (r *redisStorage) Shrink(newLength int64) error {
	if r.closed {
		return errClosed
	}
	if r.readOnly {
		return ErrReadOnly
	}
	return unavailable("shrink", shrinkScript.Run(r.ctx(), r.rdb, []string{r.key}, newLength).Err())
}

func (r *redisStorage) Length() (int64, error) {
	if r.closed {
		return 0, errClosed
	}
	n, err := r.rdb.StrLen(r.ctx(), r.key).Result()
	if err != nil {
		return 0, unavailable("strlen", err)
	}
	return n, nil
}

func (r *redisStorage) Close() error {
	if r.closed {
		return errClosed
	}
	r.closed = true
	return r.rdb.Close()
}

func (r *redisStorage) Remove() error {
	if r.closed {
		return errClosed
	}
	return r.rdb.Del(r.ctx(), r.key).Err()
}

// newRedis opens redis://[user:pass@]host[:port][/db]?key=NAME.
func newRedis(u *url.URL, conf *Config) (Storage, error) {
	key := u.Query().Get("key")
	if key == "" {
		return nil, fmt.Errorf("redis storage needs a key: %s", u)
	}
	q := u.Query()
	q.Del("key")
	nu := *u
	nu.RawQuery = q.Encode()
	opt, err := redis.ParseURL(nu.String())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", u, err)
	}
	if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
		opt.Password = os.Getenv("REDIS_PASSWORD")
	}
	opt.MaxRetries = -1
	if conf.Retries > 0 {
		opt.MaxRetries = conf.Retries
	}
	opt.MinRetryBackoff = time.Millisecond * 100
	opt.MaxRetryBackoff = time.Minute * 1
	opt.ReadTimeout = time.Second * 30
	opt.WriteTimeout = time.Second * 5
	if conf.Timeout > 0 {
		opt.DialTimeout = conf.Timeout
	}
	rdb := redis.NewClient(opt)
	if err = rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, unavailable("connect "+opt.Addr, err)
	}
	return &redisStorage{rdb: rdb, addr: opt.Addr, key: key, readOnly: conf.ReadOnly}, nil
}

func init() {
	Register("redis", newRedis)
}

var _ Storage = &redisStorage{}
