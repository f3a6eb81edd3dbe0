// cmd/main.go

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gops/agent"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"RaFS/pkg/utils"
	"RaFS/pkg/version"
	"RaFS/pkg/vfs"
)

var logger = utils.GetLogger("rafs")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"debug", "v"},
			Usage:   "enable debug log",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "enable trace log",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only warning and errors",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "path of log file",
		},
		&cli.StringFlag{
			Name:  "access-log",
			Usage: "path to write every file operation to",
		},
		&cli.BoolFlag{
			Name:  "debug-agent",
			Usage: "start a gops agent for debugging",
		},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-size",
			Value: 4096,
			Usage: "size of the window kept in memory in bytes",
		},
		&cli.BoolFlag{
			Name:  "read-only",
			Usage: "open the storage read-only",
		},
		&cli.IntFlag{
			Name:  "retries",
			Value: 0,
			Usage: "number of retries for redis commands",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: time.Second * 30,
			Usage: "timeout to connect to the storage",
		},
		&cli.StringFlag{
			Name:    "identity",
			Aliases: []string{"i"},
			Usage:   "private key for ssh (passphrase from env SFTP_KEY_PASSPHRASE)",
		},
		&cli.StringFlag{
			Name:  "known-hosts",
			Usage: "known_hosts file to verify the ssh host key, skip the check if empty",
		},
		&cli.StringFlag{
			Name:  "shrink",
			Value: "exec",
			Usage: "how to truncate sftp files (exec, setstat, none)",
		},
		&cli.Int64Flag{
			Name:  "upload-limit",
			Usage: "bandwidth limit for upload in Mbps",
		},
		&cli.Int64Flag{
			Name:  "download-limit",
			Usage: "bandwidth limit for download in Mbps",
		},
		&cli.BoolFlag{
			Name:  "encrypt",
			Usage: "encrypt file content with the passphrase from env RAFS_PASSPHRASE",
		},
	}
}

var stopAccessLog = func() {}

func setLoggerLevel(c *cli.Context) {
	if c.Bool("trace") {
		utils.SetLogLevel(logrus.TraceLevel)
	} else if c.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else if c.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
	if p := c.String("log"); p != "" {
		if err := utils.SetOutFile(p); err != nil {
			logger.Fatalf("open log file %s: %s", p, err)
		}
	}
	if c.Bool("debug-agent") {
		if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
			logger.Warnf("start gops agent: %s", err)
		}
	}
	if p := c.String("access-log"); p != "" {
		stopAccessLog = startAccessLog(p)
	}
}

// startAccessLog copies the operation log to path until the returned function is called.
func startAccessLog(path string) func() {
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Fatalf("open access log %s: %s", path, err)
	}
	id := vfs.OpenAccessLog()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		buf := make([]byte, 1<<16)
		for {
			n := vfs.ReadAccessLog(id, buf, time.Millisecond*100)
			if n > 0 {
				_, _ = fp.Write(buf[:n])
				continue
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
		vfs.CloseAccessLog(id)
		_ = fp.Close()
	}
}

func Main(args []string) error {
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", Aliases: []string{"V"},
		Usage: "print only the version",
	}
	app := &cli.App{
		Name:                 "rafs",
		Usage:                "random access to files on block-oriented remote storage",
		Version:              version.Version(),
		Copyright:            "Apache License 2.0",
		EnableBashCompletion: true,
		Flags:                append(globalFlags(), storageFlags()...),
		Commands: []*cli.Command{
			catFlags(),
			putFlags(),
			truncateFlags(),
			statFlags(),
			checkFlags(),
		},
	}
	defer func() {
		stopAccessLog()
		stopAccessLog = func() {}
	}()
	return app.Run(args)
}

func main() {
	if err := Main(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
