package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/internal/importer"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/jarcli"
	"github.com/warmjar/warmjar/pkg/logger"
)

func importCookies(ctx *cli.Context) error {
	file := ctx.String("file")
	browserDB := ctx.String("browser")
	if file == "" && browserDB == "" {
		return cli.NewExitError("warmjar: import needs --file or --browser", ExitError)
	}
	if file != "" && browserDB != "" {
		return cli.NewExitError("warmjar: --file and --browser are mutually exclusive", ExitError)
	}

	var (
		data   []byte
		format string
		err    error
	)
	if file != "" {
		data, err = os.ReadFile(file)
		if err != nil {
			return printRuntimeErr("import", err)
		}
		format = ctx.String("format")
	} else {
		cookies, err := importer.ImportBrowserProfile(browserDB, ctx.String("domain"))
		if err != nil {
			return printRuntimeErr("import", err)
		}
		if len(cookies) == 0 {
			return cli.NewExitError("warmjar: no cookies found in browser profile", ExitError)
		}
		// Ship the browser cookies to the daemon in the flat format the
		// importer already understands.
		data = store.ExportFlat(cookie.JarOf(cookies))
		format = importer.FormatNetscape.String()
	}

	if jarcli.IsDaemonRunning() {
		client, err := jarcli.NewClient()
		if err != nil {
			return printRuntimeErr("import", err)
		}
		defer client.Close()

		res, err := client.Import(data, format)
		if err != nil {
			return printRuntimeErr("import", err)
		}
		fmt.Printf("Imported %d cookies.\n", res.Imported)
		if res.Missing != "" {
			fmt.Printf("Warning: %s\n", res.Missing)
		}
		return nil
	}

	return directImport(ctx, data, format)
}

// directImport writes the jar straight into the store when no daemon is
// running.
func directImport(ctx *cli.Context, data []byte, format string) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return printRuntimeErr("import", err)
	}

	jar, err := importer.Parse(data, importer.ParseFormat(format), logger.NewStandardLogger(log.Default()))
	if err != nil {
		if errors.Is(err, importer.ErrNoValidCookies) || errors.Is(err, importer.ErrUnknownFormat) {
			return cli.NewExitError(fmt.Sprintf("warmjar: import: %v", err), ExitError)
		}
		return printRuntimeErr("import", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return printRuntimeErr("import", err)
	}
	_, meta, err := st.Load()
	if err != nil {
		fmt.Printf("warmjar: %v; replacing with imported jar\n", err)
	}
	meta.RecordImport(time.Now())
	if err := st.Save(jar, meta); err != nil {
		return printRuntimeErr("import", err)
	}

	fmt.Printf("Imported %d cookies.\n", jar.Len())
	if report := importer.Validate(jar, cfg.RequiredCookies, time.Now()); !report.OK() {
		fmt.Printf("Warning: %s\n", report)
	}
	return nil
}
