package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/etnz/pit/quotes"
	"github.com/etnz/pit/server"
	"github.com/etnz/pit/store"
	"github.com/google/subcommands"
)

type settingsCmd struct{}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "read or change a setting" }
func (*settingsCmd) Usage() string {
	return `pit settings <key> [<value>]

  Prints the value of a setting, or changes it when a value is given.
  The base_currency setting is the default reporting currency.
`
}

func (*settingsCmd) SetFlags(*flag.FlagSet) {}

func (*settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		return usage("Error: expecting a key and an optional value")
	}
	key := f.Arg(0)

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	if f.NArg() == 1 {
		value, err := e.store.Setting(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			return fail("Setting %q is not set", key)
		}
		if err != nil {
			return fail("Error reading setting: %v", err)
		}
		fmt.Fprintln(out, value)
		return subcommands.ExitSuccess
	}

	value := f.Arg(1)
	if key == store.SettingBaseCurrency {
		value = strings.ToUpper(value)
		if len(value) != 3 {
			return usage("Error: %q is not a currency code", f.Arg(1))
		}
	}
	if err := e.store.SetSetting(ctx, key, value); err != nil {
		return fail("Error saving setting: %v", err)
	}
	fmt.Fprintf(out, "%s = %s\n", key, value)
	return subcommands.ExitSuccess
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the tracker to a local front end" }
func (*serveCmd) Usage() string {
	return `pit serve [-addr <host:port>]

  Serves the JSON API, the holdings report and the allocation chart over
  HTTP until interrupted. Quotes are refreshed on the configured schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, overrides the configuration")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	addr := e.cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}

	var fetcher *quotes.Fetcher
	if e.cfg.Quotes.URL != "" || len(e.cfg.Quotes.Sources) > 0 {
		fetcher = quotes.New(e.cfg.Quotes, nil, e.log)
	}

	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: e.cfg.Server.AllowedOrigins,
		BaseCurrency:   e.cfg.BaseCurrency,
		Schedule:       e.cfg.Quotes.Schedule,
		Store:          e.store,
		Fetcher:        fetcher,
		Log:            e.log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		return fail("Error serving: %v", err)
	}
	return subcommands.ExitSuccess
}
