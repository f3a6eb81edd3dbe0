// cmd/stat.go

package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"RaFS/pkg/version"
)

type fileStat struct {
	Version   string
	Storage   string
	Length    int64
	ChunkSize int
	Chunks    int64
	Calls     int64
	Fetched   []uint64
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func stat(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("URL is needed")
	}
	f, err := openFile(c, c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("open %s: %s", c.Args().Get(0), err)
	}
	defer f.Close()
	length, err := f.Length()
	if err != nil {
		return fmt.Errorf("length of %s: %s", f.Name(), err)
	}
	cs := int64(f.ChunkSize())
	st := &fileStat{Version: version.Version(), Storage: f.Name(), Length: length, ChunkSize: int(cs)}
	st.Chunks = (length + cs - 1) / cs
	if c.Bool("verify") {
		// touch every chunk so that unreadable ones show up
		buf := make([]byte, 1)
		for i := int64(0); i < st.Chunks; i++ {
			if _, err := f.ReadAt(buf, i*cs); err != nil {
				return fmt.Errorf("read chunk %d of %s: %s", i, f.Name(), err)
			}
		}
	}
	stats := f.Stats()
	st.Calls = stats.Calls()
	st.Fetched = stats.Fetched.ToArray()
	printJson(st)
	return nil
}

func statFlags() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "show length and chunk layout of a file",
		ArgsUsage: "URL",
		Action:    stat,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "fetch every chunk once",
			},
		},
	}
}
