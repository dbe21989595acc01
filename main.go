package main

import (
	"fmt"
	"os"

	"github.com/warmjar/warmjar/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "warmjar: %s\n", err.Error())
		os.Exit(1)
	}
}
