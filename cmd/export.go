package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/jarcli"
)

func export(ctx *cli.Context) error {
	var flat []byte

	if jarcli.IsDaemonRunning() {
		client, err := jarcli.NewClient()
		if err != nil {
			return printRuntimeErr("export", err)
		}
		defer client.Close()

		res, err := client.Export()
		if err != nil {
			return printRuntimeErr("export", err)
		}
		flat = res.Flat
	} else {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return printRuntimeErr("export", err)
		}
		// The flat interop file is always plaintext; read it directly.
		flat, err = os.ReadFile(filepath.Join(cfg.StoreDir, store.FlatFile))
		if err != nil {
			if os.IsNotExist(err) {
				return cli.NewExitError("warmjar: no cookies stored yet", ExitError)
			}
			return printRuntimeErr("export", err)
		}
	}

	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, flat, 0o600); err != nil {
			return printRuntimeErr("export", err)
		}
		fmt.Printf("Exported to %s\n", out)
		return nil
	}
	_, err := os.Stdout.Write(flat)
	return err
}
