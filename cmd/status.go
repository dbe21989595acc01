package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/pkg/jarcli"
)

func status(ctx *cli.Context) error {
	if !jarcli.IsDaemonRunning() {
		return offlineStatus(ctx)
	}

	client, err := jarcli.NewClient()
	if err != nil {
		return printRuntimeErr("status", err)
	}
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		return printRuntimeErr("status", err)
	}

	fmt.Printf("Daemon:       running (pid %d, version %s)\n", st.PID, st.Version)
	fmt.Printf("Started:      %s\n", st.StartedAt.Format(time.RFC1123))
	fmt.Printf("Cookies:      %d\n", st.CookieCount)
	if st.Busy {
		fmt.Println("Refresh:      in progress")
	} else {
		fmt.Printf("Next refresh: %s\n", st.NextRunAt.Format(time.RFC1123))
	}
	if !st.LastRefreshedAt.IsZero() {
		fmt.Printf("Last refresh: %s (%d total)\n", st.LastRefreshedAt.Format(time.RFC1123), st.RefreshCount)
	}
	if !st.LastImportAt.IsZero() {
		fmt.Printf("Last import:  %s\n", st.LastImportAt.Format(time.RFC1123))
	}
	if st.ConsecutiveFailures > 0 {
		fmt.Printf("Failures:     %d consecutive\n", st.ConsecutiveFailures)
		if st.LastError != "" {
			fmt.Printf("Last error:   %s\n", st.LastError)
		}
	}
	return nil
}

// offlineStatus reports what can be known without a daemon: the
// persisted jar and its metadata.
func offlineStatus(ctx *cli.Context) error {
	fmt.Println("Daemon:       not running")

	cfg, err := loadConfig(ctx)
	if err != nil {
		return printRuntimeErr("status", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return printRuntimeErr("status", err)
	}
	jar, meta, err := st.Load()
	if err != nil {
		fmt.Printf("Store:        %v\n", err)
		return nil
	}
	fmt.Printf("Cookies:      %d (persisted)\n", jar.Len())
	if !meta.LastRefreshedAt.IsZero() {
		fmt.Printf("Last refresh: %s (%d total)\n", meta.LastRefreshedAt.Format(time.RFC1123), meta.RefreshCount)
	}
	if meta.ConsecutiveFailures > 0 {
		fmt.Printf("Failures:     %d consecutive\n", meta.ConsecutiveFailures)
	}
	return nil
}
