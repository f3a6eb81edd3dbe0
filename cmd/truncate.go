// cmd/truncate.go

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"RaFS/pkg/object"
)

func truncateFlags() *cli.Command {
	return &cli.Command{
		Name:      "truncate",
		Usage:     "grow or shrink a file",
		ArgsUsage: "URL SIZE",
		Action:    truncate,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ignore-unsupported",
				Usage: "succeed when the server can not shrink files",
			},
		},
	}
}

func truncate(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("URL and SIZE are needed")
	}
	size, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil || size < 0 {
		return fmt.Errorf("invalid size: %s", c.Args().Get(1))
	}
	f, err := openFile(c, c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("open %s: %s", c.Args().Get(0), err)
	}
	err = f.Truncate(size)
	if errors.Is(err, object.ErrUnsupportedShrink) && c.Bool("ignore-unsupported") {
		logger.Warnf("%s can not be shrunk: %s", f.Name(), err)
		err = nil
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("truncate %s to %d: %s", f.Name(), size, err)
	}
	return nil
}
