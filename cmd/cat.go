// cmd/cat.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"RaFS/pkg/utils"
)

func catFlags() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write the content of a file to stdout",
		ArgsUsage: "URL",
		Action:    cat,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "offset",
				Usage: "start reading at this offset",
			},
			&cli.Int64Flag{
				Name:  "length",
				Value: -1,
				Usage: "number of bytes to read, -1 to read till the end",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "do not show a progress bar",
			},
		},
	}
}

func cat(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("URL is needed")
	}
	f, err := openFile(c, c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("open %s: %s", c.Args().Get(0), err)
	}
	defer f.Close()

	offset, length := c.Int64("offset"), c.Int64("length")
	if offset < 0 {
		return fmt.Errorf("invalid offset %d", offset)
	}
	size, err := f.Length()
	if err != nil {
		return err
	}
	total := utils.Max64(size-offset, 0)
	if length >= 0 && length < total {
		total = length
	}
	if _, err = f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	progress, bar := utils.NewByteProgressBar("cat", total, c.Bool("no-progress") || c.Bool("quiet"))
	r := bar.ProxyReader(io.LimitReader(f, total))
	n, err := io.CopyBuffer(os.Stdout, r, make([]byte, bufferSize(c)))
	_ = r.Close()
	bar.SetTotal(-1, true)
	progress.Wait()
	if err != nil {
		return fmt.Errorf("read %s after %d bytes: %s", f.Name(), n, err)
	}
	logger.Debugf("%d bytes read from %s", n, f.Name())
	return nil
}
