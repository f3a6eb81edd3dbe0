// cmd/put.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"RaFS/pkg/utils"
)

func putFlags() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "write a local file or stdin into a file",
		ArgsUsage: "URL [FILE|-]",
		Action:    put,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "offset",
				Usage: "start writing at this offset, the file is extended if needed",
			},
			&cli.BoolFlag{
				Name:  "truncate",
				Usage: "cut the file right after the written data",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "do not show a progress bar",
			},
		},
	}
}

func put(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("URL is needed")
	}
	var in io.Reader = os.Stdin
	var total int64
	if src := c.Args().Get(1); src != "" && src != "-" {
		fp, err := os.Open(src)
		if err != nil {
			return err
		}
		defer fp.Close()
		if fi, err := fp.Stat(); err == nil {
			total = fi.Size()
		}
		in = fp
	}
	offset := c.Int64("offset")
	if offset < 0 {
		return fmt.Errorf("invalid offset %d", offset)
	}

	f, err := openFile(c, c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("open %s: %s", c.Args().Get(0), err)
	}
	if _, err = f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return err
	}
	progress, bar := utils.NewByteProgressBar("put", total, c.Bool("no-progress") || c.Bool("quiet"))
	r := bar.ProxyReader(in)
	n, err := io.CopyBuffer(f, r, make([]byte, bufferSize(c)))
	bar.SetTotal(-1, true)
	progress.Wait()
	if err == nil && c.Bool("truncate") {
		err = f.Truncate(offset + n)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s after %d bytes: %s", f.Name(), n, err)
	}
	logger.Infof("%d bytes written to %s at %d", n, f.Name(), offset)
	return nil
}
