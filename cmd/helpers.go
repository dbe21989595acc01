package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/internal/config"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

// loadConfig resolves the configuration honoring the global --config
// flag.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.Load(ctx.GlobalString("config"))
}

// openStore opens the persistence layer for direct (daemon-less)
// operations, with the same encryption settings the daemon would use.
func openStore(cfg *config.Config) (*store.Store, error) {
	var opts []store.Option
	if cfg.EncryptValues {
		key, err := store.LoadOrCreateKey()
		if err != nil {
			return nil, err
		}
		opts = append(opts, store.WithEncryption(key))
	}
	return store.New(cfg.StoreDir, logger.NewNopLogger(), opts...)
}

func appVersion(ctx *cli.Context) string {
	if v, ok := ctx.App.Metadata["version"].(string); ok {
		return v
	}
	return "dev"
}

func printRuntimeErr(scope string, err error) error {
	return cli.NewExitError(fmt.Sprintf("warmjar: %s: %v", scope, err), ExitError)
}
