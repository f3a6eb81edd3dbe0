// cmd/check.go

package main

import (
	"bytes"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"RaFS/pkg/object"
)

func checkFlags() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "check that a storage supports reads, writes and truncation",
		ArgsUsage: "DIR-URL",
		Action:    check,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "size",
				Value: 10000,
				Usage: "size of the probe file in bytes",
			},
		},
	}
}

// probeURL returns a URL for a new file next to base. For redis the key gets a suffix.
func probeURL(base string) (string, error) {
	name := ".rafs-check-" + uuid.New().String()
	if !strings.Contains(base, "://") {
		return filepath.Join(base, name), nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %s: %s", base, err)
	}
	if q := u.Query(); q.Get("key") != "" {
		q.Set("key", q.Get("key")+name)
		u.RawQuery = q.Encode()
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + name
	}
	return u.String(), nil
}

func doTesting(c *cli.Context, rawurl string, data []byte) error {
	f, err := openFile(c, rawurl)
	if err != nil {
		return fmt.Errorf("Failed to open: %s", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("Failed to write: %s", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("Failed to flush: %s", err)
	}

	f, err = openFile(c, rawurl)
	if err != nil {
		return fmt.Errorf("Failed to reopen: %s", err)
	}
	defer f.Close()
	data2 := make([]byte, len(data))
	if _, err = io.ReadFull(f, data2); err != nil {
		return fmt.Errorf("Failed to read: %s", err)
	}
	if !bytes.Equal(data, data2) {
		return fmt.Errorf("Read wrong data")
	}

	grown := int64(len(data)) * 2
	if err = f.Truncate(grown); err != nil {
		return fmt.Errorf("Failed to grow: %s", err)
	}
	if l, err := f.Length(); err != nil || l != grown {
		return fmt.Errorf("Length after grow is %d, expect %d: %v", l, grown, err)
	}
	half := int64(len(data)) / 2
	err = f.Truncate(half)
	if errors.Is(err, object.ErrUnsupportedShrink) {
		logger.Warnf("%s can not shrink files: %s", f.Name(), err)
	} else if err != nil {
		return fmt.Errorf("Failed to shrink: %s", err)
	} else if l, err := f.Length(); err != nil || l != half {
		return fmt.Errorf("Length after shrink is %d, expect %d: %v", l, half, err)
	}
	if _, err = f.ReadAt(data2[:half], 0); err != nil || !bytes.Equal(data[:half], data2[:half]) {
		return fmt.Errorf("Read wrong data after truncate: %v", err)
	}
	return nil
}

func remove(c *cli.Context, rawurl string) {
	blob, err := createStorage(c, rawurl)
	if err != nil {
		logger.Warnf("Failed to delete: %s", err)
		return
	}
	defer blob.Close()
	if r, ok := blob.(object.Remover); ok {
		if err = r.Remove(); err != nil {
			// it's OK to don't have deletion permission
			logger.Warnf("Failed to delete: %s", err)
		}
	}
}

func test(c *cli.Context, rawurl string, size int) error {
	data := make([]byte, size)
	_, _ = crand.Read(data)
	nRetry := 3
	var err error
	for i := 0; i < nRetry; i++ {
		err = doTesting(c, rawurl, data)
		remove(c, rawurl)
		if err == nil {
			return nil
		}
		logger.Debugf("check %s: %s", rawurl, err)
		time.Sleep(time.Second * time.Duration(i*3+1))
	}
	return err
}

func check(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("DIR-URL is needed")
	}
	if c.Bool("read-only") {
		return fmt.Errorf("check writes a probe file, it can not run read-only")
	}
	size := c.Int("size")
	if size < 2 {
		return fmt.Errorf("invalid size: %d", size)
	}
	rawurl, err := probeURL(c.Args().Get(0))
	if err != nil {
		return err
	}
	logger.Infof("Checking %s", rawurl)
	if err = test(c, rawurl, size); err != nil {
		logger.Fatalf("Storage %s is not configured correctly: %s", c.Args().Get(0), err)
	}
	logger.Infof("\033[92mOK\033[0m, %s supports random access", c.Args().Get(0))
	return nil
}
