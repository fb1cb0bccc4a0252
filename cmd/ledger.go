package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/etnz/pit/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	asset  string
	kind   string
	period string
	start  string
	date   string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions" }
func (*txCmd) Usage() string {
	return `pit tx [-s <asset>] [-t <type>] [-p <period> | -from <start_date>] [-d <end_date>] [-head <n>] [-tail <n>]

  Lists transactions from the ledger, newest first, with options for filtering and limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.asset, "s", "", "Only transactions of this asset (id, ticker or name).")
	f.StringVar(&p.kind, "t", "", "Only transactions of this type (Buy, Sell, Dividend, Fee).")
	f.StringVar(&p.period, "p", "", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&p.start, "from", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&p.date, "d", "", "The end date for the range.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

// filters converts the flags into ledger filters.
func (p *txCmd) filters() ([]func(pit.Transaction) bool, error) {
	var filters []func(pit.Transaction) bool
	if p.kind != "" {
		t, err := pit.ParseTxType(p.kind)
		if err != nil {
			return nil, err
		}
		filters = append(filters, pit.OfType(t))
	}
	// If no date range flags are provided, use the full range of the ledger.
	if p.start == "" && p.date == "" && p.period == "" {
		return filters, nil
	}

	end := date.Today()
	if p.date != "" {
		d, err := date.Parse(p.date)
		if err != nil {
			return nil, fmt.Errorf("error parsing end date: %w", err)
		}
		end = d
	}
	switch {
	case p.start != "":
		start, err := date.Parse(p.start)
		if err != nil {
			return nil, fmt.Errorf("error parsing start date: %w", err)
		}
		filters = append(filters, pit.In(date.Range{From: start, To: end}))
	case p.period != "":
		period, err := date.ParsePeriod(p.period)
		if err != nil {
			return nil, err
		}
		filters = append(filters, pit.In(date.ToDate(end, period)))
	default:
		filters = append(filters, pit.Until(end))
	}
	return filters, nil
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		return usage("Error: -head and -tail flags cannot be used together.")
	}
	filters, err := p.filters()
	if err != nil {
		return usage("Error: %v", err)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	if p.asset != "" {
		a, err := resolveAsset(ctx, e, p.asset)
		if err != nil {
			return fail("Error finding asset %q: %v", p.asset, err)
		}
		filters = append(filters, pit.OfAsset(a.ID))
	}

	ledger, err := e.store.Ledger(ctx)
	if err != nil {
		return fail("Error loading ledger: %v", err)
	}
	assets, err := e.store.ListAssets(ctx)
	if err != nil {
		return fail("Error loading assets: %v", err)
	}

	transactions := ledger.Collect(filters...)
	if p.head > 0 && len(transactions) > p.head {
		transactions = transactions[:p.head]
	}
	if p.tail > 0 && len(transactions) > p.tail {
		transactions = transactions[len(transactions)-p.tail:]
	}

	printMarkdown(renderer.TransactionsMarkdown(transactions, byID(assets)))
	return subcommands.ExitSuccess
}

func byID(assets []pit.Asset) map[int64]pit.Asset {
	m := make(map[int64]pit.Asset, len(assets))
	for _, a := range assets {
		m[a.ID] = a
	}
	return m
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import assets and transactions from a JSONL archive" }
func (*importCmd) Usage() string {
	return `pit import <file.jsonl>

  Imports an archive produced by 'pit export'. Assets already declared are
  matched by ticker or name. The import is atomic: nothing is imported if
  any line is invalid.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("Error: expecting exactly one archive file")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail("Error opening archive: %v", err)
	}
	defer file.Close()

	archive, err := pit.DecodeArchive(file)
	if err != nil {
		return fail("Error decoding archive %q: %v", f.Arg(0), err)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	na, nt, err := e.store.Import(ctx, archive)
	if err != nil {
		return fail("Error importing %q: %v", f.Arg(0), err)
	}
	fmt.Fprintf(out, "Imported %d new assets and %d transactions\n", na, nt)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export assets and transactions as a JSONL archive" }
func (*exportCmd) Usage() string {
	return `pit export [-o <file.jsonl>]

  Writes every asset and transaction, one JSON object per line. The output
  can be read back with 'pit import'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, defaults to the standard output")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	assets, err := e.store.ListAssets(ctx)
	if err != nil {
		return fail("Error loading assets: %v", err)
	}
	ledger, err := e.store.Ledger(ctx)
	if err != nil {
		return fail("Error loading ledger: %v", err)
	}

	w := bufio.NewWriter(out)
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			return fail("Error creating %q: %v", c.output, err)
		}
		defer file.Close()
		w = bufio.NewWriter(file)
	}
	if err := pit.EncodeArchive(w, assets, ledger); err != nil {
		return fail("Error exporting: %v", err)
	}
	if err := w.Flush(); err != nil {
		return fail("Error exporting: %v", err)
	}
	return subcommands.ExitSuccess
}
