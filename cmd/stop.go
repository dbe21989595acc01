package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/pkg/jarcli"
)

const stopPollTimeout = 10 * time.Second

func stop(ctx *cli.Context) error {
	if !jarcli.IsDaemonRunning() {
		fmt.Println("Daemon is not running.")
		return nil
	}

	client, err := jarcli.NewClient()
	if err != nil {
		return printRuntimeErr("stop", err)
	}
	defer client.Close()

	if _, err := client.Stop(); err != nil {
		return printRuntimeErr("stop", err)
	}

	deadline := time.Now().Add(stopPollTimeout)
	for time.Now().Before(deadline) {
		if !jarcli.IsDaemonRunning() {
			fmt.Println("Daemon stopped.")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return cli.NewExitError("warmjar: daemon did not stop in time", ExitError)
}

func restart(ctx *cli.Context) error {
	if jarcli.IsDaemonRunning() {
		if err := stop(ctx); err != nil {
			return err
		}
	}
	if err := jarcli.EnsureDaemon(ctx.GlobalString("config")); err != nil {
		return printRuntimeErr("restart", err)
	}
	fmt.Println("Daemon restarted.")
	return nil
}
