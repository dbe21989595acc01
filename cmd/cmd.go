// Package cmd is the warmjar command line interface: lifecycle commands
// for the daemon (start, stop, restart, status) and jar operations
// (refresh, import, export) that talk to it over the local socket.
package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

// BuildArgs carries build-time identity injected via ldflags.
type BuildArgs struct {
	Version string
	Commit  string
	Date    string
}

// Exit codes. Lock conflicts get their own code so wrapper scripts can
// tell "already running" from a real failure.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitAlreadyRunning = 2
)

func Execute(args []string, bArgs BuildArgs) error {
	if bArgs.Version == "" {
		bArgs.Version = "dev"
	}
	app := cli.App{
		Name:      "warmjar",
		HelpName:  "warmjar",
		Usage:     "keeps a platform session's cookies warm for downstream tools",
		Version:   bArgs.Version,
		UsageText: "warmjar <command> [arguments...]",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "config, c",
				Usage: "path to the configuration file",
			},
		},
		Commands: []cli.Command{
			{
				Name:   "start",
				Usage:  "start the refresh daemon",
				Action: start,
				Flags: []cli.Flag{
					cli.BoolFlag{
						Name:  "detach, d",
						Usage: "run the daemon in the background",
					},
				},
			},
			{
				Name:   "stop",
				Usage:  "stop the running daemon",
				Action: stop,
			},
			{
				Name:   "restart",
				Usage:  "restart the daemon",
				Action: restart,
			},
			{
				Name:   "status",
				Usage:  "show daemon and jar status",
				Action: status,
			},
			{
				Name:   "refresh",
				Usage:  "trigger an immediate cookie refresh",
				Action: refresh,
			},
			{
				Name:   "import",
				Usage:  "import cookies from a file or a browser profile",
				Action: importCookies,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:  "file, f",
						Usage: "cookie file to import (netscape or json)",
					},
					cli.StringFlag{
						Name:  "format",
						Usage: "force the input format: netscape or json",
					},
					cli.StringFlag{
						Name:  "browser, b",
						Usage: "import from a browser cookie database at this path",
					},
					cli.StringFlag{
						Name:  "domain",
						Usage: "restrict browser import to this domain suffix",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "export the jar in flat netscape format",
				Action: export,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:  "out, o",
						Usage: "write to this file instead of stdout",
					},
				},
			},
			{
				Name:  "version",
				Usage: "print the installed version",
				Action: func(ctx *cli.Context) error {
					fmt.Printf("warmjar %s (%s, built %s)\n", bArgs.Version, bArgs.Commit, bArgs.Date)
					return nil
				},
			},
		},
	}
	app.Metadata = map[string]any{"version": bArgs.Version}
	return app.Run(args)
}
