package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/internal/config"
	"github.com/warmjar/warmjar/internal/service"
	"github.com/warmjar/warmjar/pkg/jarcli"
	"github.com/warmjar/warmjar/pkg/logger"
)

func start(ctx *cli.Context) error {
	if ctx.Bool("detach") {
		if jarcli.IsDaemonRunning() {
			return cli.NewExitError("warmjar: daemon is already running", ExitAlreadyRunning)
		}
		if err := jarcli.EnsureDaemon(ctx.GlobalString("config")); err != nil {
			return printRuntimeErr("start", err)
		}
		fmt.Println("Daemon started.")
		return nil
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return printRuntimeErr("start", err)
	}

	lg, closeLog, err := buildLogger(cfg)
	if err != nil {
		return printRuntimeErr("start", err)
	}
	defer closeLog()

	svc := service.New(cfg, lg, appVersion(ctx))
	runCtx, cancel := service.NotifyShutdown(context.Background())
	defer cancel()

	if err := svc.Run(runCtx); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			return cli.NewExitError("warmjar: another instance is already running", ExitAlreadyRunning)
		}
		return printRuntimeErr("start", err)
	}
	return nil
}

// buildLogger combines console output with the configured log file so a
// detached daemon still leaves a trail.
func buildLogger(cfg *config.Config) (logger.Logger, func(), error) {
	console := logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags))

	path := cfg.LogFile
	if path == "" {
		path = cfg.StoreDir + "/warmjar.log"
	}
	file, err := logger.NewFileLogger(path)
	if err != nil {
		// A broken log path should not keep the daemon down.
		console.Warning("cannot open log file %s: %v", path, err)
		return console, func() {}, nil
	}
	multi := logger.NewMultiLogger(console, file)
	return multi, func() { _ = multi.Close() }, nil
}
