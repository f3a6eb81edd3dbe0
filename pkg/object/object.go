// pkg/object/object.go

package object

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"RaFS/pkg/utils"
)

var logger = utils.GetLogger("rafs")

// Config for storages.
type Config struct {
	ReadOnly   bool
	Retries    int
	Timeout    time.Duration
	Identity   string // private key file for ssh
	KnownHosts string // known_hosts file, empty to skip host key checking
	Shrink     string // exec, setstat or none (sftp only)
}

// Creator creates a storage for the file addressed by u.
type Creator func(u *url.URL, conf *Config) (Storage, error)

var (
	storagesLk sync.Mutex
	storages   = make(map[string]Creator)
)

// Register makes a storage available under the URL scheme name.
func Register(name string, register Creator) {
	storagesLk.Lock()
	defer storagesLk.Unlock()
	storages[name] = register
}

// CreateStorage opens the storage for rawurl. The scheme selects the driver;
// a bare path is treated as a local file.
func CreateStorage(rawurl string, conf *Config) (Storage, error) {
	if conf == nil {
		conf = &Config{}
	}
	var u *url.URL
	if !strings.Contains(rawurl, "://") {
		p, err := filepath.Abs(rawurl)
		if err != nil {
			return nil, fmt.Errorf("abs of %s: %s", rawurl, err)
		}
		u = &url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	} else {
		var err error
		if u, err = url.Parse(rawurl); err != nil {
			return nil, fmt.Errorf("parse %s: %s", rawurl, err)
		}
	}
	storagesLk.Lock()
	f, ok := storages[strings.ToLower(u.Scheme)]
	storagesLk.Unlock()
	if !ok {
		return nil, fmt.Errorf("invalid storage: %s", u.Scheme)
	}
	return f(u, conf)
}
