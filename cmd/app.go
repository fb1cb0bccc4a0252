// Package cmd implements the CLI application to track a personal portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/pit/config"
	"github.com/etnz/pit/logger"
	"github.com/etnz/pit/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addAssetCmd{}, "assets")
	c.Register(&assetsCmd{}, "assets")
	c.Register(&priceCmd{}, "assets")
	c.Register(&rateCmd{}, "assets")
	c.Register(&fetchCmd{}, "assets")

	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&dividendCmd{}, "transactions")
	c.Register(&feeCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")
	c.Register(&exportCmd{}, "transactions")

	c.Register(&holdingsCmd{}, "reports")
	c.Register(&dashboardCmd{}, "reports")
	c.Register(&allocationCmd{}, "reports")
	c.Register(&moversCmd{}, "reports")
	c.Register(&dividendsCmd{}, "reports")

	c.Register(&settingsCmd{}, "")
	c.Register(&serveCmd{}, "")
	c.Register(&topicCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", config.DefaultConfigPath(), "Path to the TOML configuration file")
	dbPath     = flag.String("db", "", "Path to the SQLite database, overrides the configuration")
	verbose    = flag.Bool("v", false, "Enable debug logging")
	plain      = flag.Bool("plain", false, "Print reports as raw markdown")
)

// out receives the command output.
var out io.Writer = os.Stdout

// loadConfig reads the configuration file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the CLI logger: human readable, on stderr.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true})
}

// env is what every command that touches the database needs.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
}

// Close releases the database.
func (e *env) Close() { e.store.Close() }

// baseCurrency returns the stored base currency, or the configured one.
func (e *env) baseCurrency(ctx context.Context) (string, error) {
	return e.store.BaseCurrency(ctx, e.cfg.BaseCurrency)
}

// openEnv is the central function to open the database.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	log := newLogger(cfg)
	st, err := store.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("error opening database %q: %w", cfg.Database.Path, err)
	}
	return &env{cfg: cfg, log: log, store: st}, nil
}

// printMarkdown renders a markdown document for the terminal. It falls back
// to the raw markdown when the renderer is not available.
func printMarkdown(md string) {
	if *plain {
		fmt.Fprint(out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var s string
		if s, err = r.Render(md); err == nil {
			fmt.Fprint(out, s)
			return
		}
	}
	fmt.Fprint(out, md)
}

// fail prints an error and returns the failure status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

// usage prints an error and returns the usage status.
func usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitUsageError
}
