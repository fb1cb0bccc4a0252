package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/etnz/pit/quotes"
	"github.com/google/subcommands"
)

type priceCmd struct {
	date  string
	asset string
	price string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "record the market price of an asset" }
func (*priceCmd) Usage() string {
	return `pit price -s <asset> -p <price> [-d <date>]

  Records the closing price of an asset on a day, in the asset currency.
  Reports use the latest price on or before their date.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Day of the price")
	f.StringVar(&c.asset, "s", "", "Asset id, ticker or name")
	f.StringVar(&c.price, "p", "", "Price per unit")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		return usage("Error parsing date: %v", err)
	}
	price, err := parseDecimal("p", c.price)
	if err != nil || !price.IsPositive() {
		return usage("Error: -p must be a positive number")
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	a, err := resolveAsset(ctx, e, c.asset)
	if err != nil {
		return fail("Error finding asset %q: %v", c.asset, err)
	}
	p := pit.M(price, a.Currency)
	if err := e.store.SetPrice(ctx, a.ID, on, p); err != nil {
		return fail("Error recording price: %v", err)
	}
	fmt.Fprintf(out, "%s is %s on %s\n", a.Label(), p, on)
	return subcommands.ExitSuccess
}

type rateCmd struct {
	date string
	pair string
	rate string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "record an exchange rate" }
func (*rateCmd) Usage() string {
	return `pit rate -pair <BASE/QUOTE> -r <rate> [-d <date>]

  Records that 1 BASE is worth <rate> QUOTE on a day. The inverse rate is
  derived when needed.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Day of the rate")
	f.StringVar(&c.pair, "pair", "", "Currency pair, like EUR/USD")
	f.StringVar(&c.rate, "r", "", "Exchange rate")
}

func (c *rateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		return usage("Error parsing date: %v", err)
	}
	base, quote, ok := strings.Cut(strings.ToUpper(c.pair), "/")
	if !ok || base == "" || quote == "" || base == quote {
		return usage("Error: -pair must look like EUR/USD")
	}
	rate, err := parseDecimal("r", c.rate)
	if err != nil || !rate.IsPositive() {
		return usage("Error: -r must be a positive number")
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	if err := e.store.SetRate(ctx, base, quote, on, rate); err != nil {
		return fail("Error recording rate: %v", err)
	}
	fmt.Fprintf(out, "1 %s = %s %s on %s\n", base, rate, quote, on)
	return subcommands.ExitSuccess
}

type fetchCmd struct {
	cache bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch today's prices from the configured quote source" }
func (*fetchCmd) Usage() string {
	return `pit fetch [-cache]

  Fetches the latest price of every asset with a ticker from the quote
  source configured in the [quotes] section, and records it for today.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.cache, "cache", false, "Reuse responses fetched earlier today")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	if e.cfg.Quotes.URL == "" && len(e.cfg.Quotes.Sources) == 0 {
		return fail("Error: no quote source configured, see the [quotes] section of %s", *configFile)
	}

	fetcher := quotes.New(e.cfg.Quotes, nil, e.log)
	if c.cache {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fail("Error locating cache directory: %v", err)
		}
		fetcher = quotes.New(e.cfg.Quotes, quotes.Daily(&http.Client{Timeout: e.cfg.Quotes.GetTimeout()}, filepath.Join(dir, "pit", "quotes"), e.log), e.log)
	}

	assets, err := e.store.ListAssets(ctx)
	if err != nil {
		return fail("Error loading assets: %v", err)
	}
	n, err := fetcher.Update(ctx, assets, e.store, date.Today())
	fmt.Fprintf(out, "Updated %d prices\n", n)
	if err != nil {
		return fail("Some prices could not be fetched:\n%v", err)
	}
	return subcommands.ExitSuccess
}
