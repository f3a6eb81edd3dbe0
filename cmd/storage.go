// cmd/storage.go

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"RaFS/pkg/chunk"
	"RaFS/pkg/object"
	"RaFS/pkg/vfs"
)

func createStorage(c *cli.Context, rawurl string) (object.Storage, error) {
	conf := &object.Config{
		ReadOnly:   c.Bool("read-only"),
		Retries:    c.Int("retries"),
		Timeout:    c.Duration("timeout"),
		Identity:   c.String("identity"),
		KnownHosts: c.String("known-hosts"),
		Shrink:     c.String("shrink"),
	}
	blob, err := object.CreateStorage(rawurl, conf)
	if err != nil {
		return nil, err
	}
	if c.Bool("encrypt") {
		passphrase := os.Getenv("RAFS_PASSPHRASE")
		if passphrase == "" {
			_ = blob.Close()
			return nil, fmt.Errorf("passphrase is required, set it in env RAFS_PASSPHRASE")
		}
		enc, err := object.NewEncrypted(blob, passphrase)
		if err != nil {
			_ = blob.Close()
			return nil, fmt.Errorf("encrypt: %s", err)
		}
		blob = enc
	}
	up, down := c.Int64("upload-limit"), c.Int64("download-limit")
	if up > 0 || down > 0 {
		// Mbps to bytes per second
		blob = object.NewLimited(blob, up*1e6/8, down*1e6/8)
	}
	logger.Debugf("storage %s", blob)
	return blob, nil
}

func openFile(c *cli.Context, rawurl string) (*vfs.File, error) {
	blob, err := createStorage(c, rawurl)
	if err != nil {
		return nil, err
	}
	cache := chunk.NewCache(blob, &chunk.Config{ChunkSize: c.Int("chunk-size")})
	return vfs.Open(cache), nil
}

// bufferSize returns the buffer size used to stream through a file.
func bufferSize(c *cli.Context) int {
	if n := c.Int("chunk-size"); n > 0 {
		return n
	}
	return chunk.DefaultChunkSize
}
