package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/internal/browser"
	"github.com/warmjar/warmjar/internal/refresher"
	"github.com/warmjar/warmjar/pkg/jarcli"
	"github.com/warmjar/warmjar/pkg/logger"
)

func refresh(ctx *cli.Context) error {
	if jarcli.IsDaemonRunning() {
		client, err := jarcli.NewClient()
		if err != nil {
			return printRuntimeErr("refresh", err)
		}
		defer client.Close()

		if _, err := client.Refresh(); err != nil {
			return printRuntimeErr("refresh", err)
		}
		fmt.Println("Refresh triggered; check `warmjar status` for the outcome.")
		return nil
	}

	// No daemon: run a single refresh cycle in-process.
	return oneShotRefresh(ctx)
}

func oneShotRefresh(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return printRuntimeErr("refresh", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return printRuntimeErr("refresh", err)
	}
	jar, meta, err := st.Load()
	if err != nil {
		fmt.Printf("warmjar: %v; starting with an empty jar\n", err)
	}

	lg := logger.NewNopLogger()
	launcher := browser.NewRodLauncher(browser.Options{
		Bin:               cfg.Browser.Bin,
		Headless:          cfg.Headless(),
		LaunchTimeout:     cfg.LaunchTimeout(),
		NavigationTimeout: cfg.NavigationTimeout(),
		SettleTimeout:     cfg.SettleTimeout(),
	})
	var opts []refresher.Option
	if cfg.ProbeURL != "" {
		opts = append(opts, refresher.WithProber(
			refresher.NewHTTPProber(cfg.ProbeURL, cfg.ProbeTimeout(), lg)))
	}
	ref := refresher.New(launcher, cfg.TargetURL, cfg.RequiredCookies, lg, opts...)

	fmt.Println("Refreshing cookies...")
	res := ref.Refresh(context.Background(), jar)
	if res.Err != nil {
		return printRuntimeErr("refresh", res.Err)
	}
	meta.RecordRefresh(res.FinishedAt)
	if err := st.Save(res.Jar, meta); err != nil {
		return printRuntimeErr("refresh", err)
	}
	fmt.Printf("Refreshed %d cookies.\n", res.Jar.Len())
	return nil
}
