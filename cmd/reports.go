package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/etnz/pit/renderer"
	"github.com/google/subcommands"
)

// reportFlags are the flags shared by the reports.
type reportFlags struct {
	date     string
	currency string
}

func (r *reportFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&r.date, "d", date.Today().String(), "Date of the report (YYYY-MM-DD)")
	f.StringVar(&r.currency, "c", "", "Reporting currency, defaults to the base currency")
}

// report is the data loaded for a report.
type report struct {
	on       date.Date
	currency string
	assets   []pit.Asset
	ledger   *pit.Ledger
	market   *pit.MarketData
}

// load parses the flags and reads the database.
func (r *reportFlags) load(ctx context.Context) (*report, subcommands.ExitStatus) {
	on, err := date.Parse(r.date)
	if err != nil {
		return nil, usage("Error parsing date: %v", err)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return nil, fail("%v", err)
	}
	defer e.Close()

	rep := &report{on: on, currency: strings.ToUpper(r.currency)}
	if rep.currency == "" {
		if rep.currency, err = e.baseCurrency(ctx); err != nil {
			return nil, fail("Error reading base currency: %v", err)
		}
	}
	if rep.assets, err = e.store.ListAssets(ctx); err != nil {
		return nil, fail("Error loading assets: %v", err)
	}
	if rep.ledger, err = e.store.Ledger(ctx); err != nil {
		return nil, fail("Error loading ledger: %v", err)
	}
	if rep.market, err = e.store.MarketData(ctx); err != nil {
		return nil, fail("Error loading market data: %v", err)
	}
	return rep, subcommands.ExitSuccess
}

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	reportFlags
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display holdings on a specific date" }
func (*holdingsCmd) Usage() string {
	return `pit holdings [-d <date>] [-c <currency>]

  Displays the position in every asset on a given date: quantity, average
  cost, market value and unrealized gain or loss, plus the net cash flows.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, status := c.load(ctx)
	if r == nil {
		return status
	}
	holdings, err := pit.NewHoldingsReport(r.assets, r.ledger, r.market, r.on, r.currency)
	if err != nil {
		return fail("Error creating holdings report: %v", err)
	}
	printMarkdown(renderer.HoldingsMarkdown(holdings))
	return subcommands.ExitSuccess
}

type dashboardCmd struct {
	reportFlags
	period string
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display the portfolio dashboard" }
func (*dashboardCmd) Usage() string {
	return `pit dashboard [-p <period>] [-d <date>] [-c <currency>]

  Displays the total value and its change over the period, the allocation by
  asset type, the top movers and the upcoming dividends.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.period, "p", "month", "Period (1D, 1W, 1M, 1Q, 1Y or day, week, month, quarter, year)")
}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := date.ParsePeriod(c.period)
	if err != nil {
		return usage("Error: %v", err)
	}
	r, status := c.load(ctx)
	if r == nil {
		return status
	}
	d, err := pit.NewDashboard(r.assets, r.ledger, r.market, r.on, period, r.currency)
	if err != nil {
		return fail("Error creating dashboard: %v", err)
	}
	printMarkdown(renderer.DashboardMarkdown(d))
	return subcommands.ExitSuccess
}

type allocationCmd struct {
	reportFlags
	chart string
}

func (*allocationCmd) Name() string     { return "allocation" }
func (*allocationCmd) Synopsis() string { return "display the allocation by asset type" }
func (*allocationCmd) Usage() string {
	return `pit allocation [-d <date>] [-c <currency>] [-chart <file.svg|file.png>]

  Displays the share of each asset type in the portfolio value, and
  optionally draws it as a pie chart.
`
}

func (c *allocationCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.chart, "chart", "", "Also draw a pie chart into this .svg or .png file")
}

func (c *allocationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format := renderer.SVG
	if c.chart != "" {
		switch strings.ToLower(filepath.Ext(c.chart)) {
		case ".svg":
		case ".png":
			format = renderer.PNG
		default:
			return usage("Error: -chart must end in .svg or .png")
		}
	}

	r, status := c.load(ctx)
	if r == nil {
		return status
	}
	holdings, err := pit.NewHoldingsReport(r.assets, r.ledger, r.market, r.on, r.currency)
	if err != nil {
		return fail("Error creating holdings report: %v", err)
	}
	alloc := holdings.Allocation()
	printMarkdown(renderer.AllocationMarkdown(alloc))

	if c.chart == "" {
		return subcommands.ExitSuccess
	}
	file, err := os.Create(c.chart)
	if err != nil {
		return fail("Error creating %q: %v", c.chart, err)
	}
	defer file.Close()
	if err := renderer.AllocationChart(file, alloc, format); err != nil {
		return fail("Error drawing chart: %v", err)
	}
	fmt.Fprintf(out, "Chart written to %s\n", c.chart)
	return subcommands.ExitSuccess
}

type moversCmd struct {
	reportFlags
	period string
	n      int
}

func (*moversCmd) Name() string     { return "movers" }
func (*moversCmd) Synopsis() string { return "display the top gainers and losers" }
func (*moversCmd) Usage() string {
	return `pit movers [-p <period>] [-n <count>] [-d <date>]

  Displays the held assets whose price moved the most since the end of the
  previous period.
`
}

func (c *moversCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.period, "p", "day", "Period (1D, 1W, 1M, 1Q, 1Y or day, week, month, quarter, year)")
	f.IntVar(&c.n, "n", pit.DashboardMovers, "Number of gainers and losers to show")
}

func (c *moversCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := date.ParsePeriod(c.period)
	if err != nil {
		return usage("Error: %v", err)
	}
	r, status := c.load(ctx)
	if r == nil {
		return status
	}
	holdings, err := pit.NewHoldingsReport(r.assets, r.ledger, r.market, r.on, r.currency)
	if err != nil {
		return fail("Error creating movers report: %v", err)
	}
	printMarkdown(renderer.MoversMarkdown(pit.NewMoversReport(holdings, r.ledger, r.market, period, c.n)))
	return subcommands.ExitSuccess
}

type dividendsCmd struct {
	reportFlags
	horizon int
}

func (*dividendsCmd) Name() string     { return "dividends" }
func (*dividendsCmd) Synopsis() string { return "estimate upcoming dividends" }
func (*dividendsCmd) Usage() string {
	return `pit dividends [-days <n>] [-d <date>]

  Estimates the next dividend of every held asset from its payment history.
`
}

func (c *dividendsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.IntVar(&c.horizon, "days", pit.DashboardHorizon, "Number of days to look ahead")
}

func (c *dividendsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, status := c.load(ctx)
	if r == nil {
		return status
	}
	holdings, err := pit.NewHoldingsReport(r.assets, r.ledger, r.market, r.on, r.currency)
	if err != nil {
		return fail("Error estimating dividends: %v", err)
	}
	printMarkdown(renderer.DividendsMarkdown(pit.EstimateDividends(holdings, r.ledger, c.horizon)))
	return subcommands.ExitSuccess
}
