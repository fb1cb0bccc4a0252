package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// txFlags are the flags shared by the commands recording a transaction.
type txFlags struct {
	date     string
	asset    string
	currency string
	fees     string
	notes    string
}

func (t *txFlags) setFlags(f *flag.FlagSet, withAsset bool) {
	f.StringVar(&t.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	if withAsset {
		f.StringVar(&t.asset, "s", "", "Asset id, ticker or name")
	}
	f.StringVar(&t.currency, "c", "", "Transaction currency, defaults to the asset currency")
	f.StringVar(&t.fees, "fees", "0", "Transaction costs")
	f.StringVar(&t.notes, "m", "", "Free text notes")
}

// parseDecimal parses a flag value, an empty value is zero.
func parseDecimal(name, v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return d, fmt.Errorf("invalid -%s %q: %w", name, v, err)
	}
	return d, nil
}

// record completes tx with the shared flags and stores it.
func (t *txFlags) record(ctx context.Context, tx pit.Transaction) subcommands.ExitStatus {
	day, err := date.Parse(t.date)
	if err != nil {
		return usage("Error parsing date: %v", err)
	}
	fees, err := parseDecimal("fees", t.fees)
	if err != nil {
		return usage("Error: %v", err)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	tx.Date, tx.Fees, tx.Notes = day, fees, t.notes
	tx.Currency = strings.ToUpper(t.currency)

	var label string
	if tx.Type == pit.Fee {
		if t.asset != "" {
			return usage("Error: fees are not attached to an asset")
		}
		if tx.Currency == "" {
			if tx.Currency, err = e.baseCurrency(ctx); err != nil {
				return fail("Error reading base currency: %v", err)
			}
		}
	} else {
		if t.asset == "" {
			return usage("Error: -s is required")
		}
		a, err := resolveAsset(ctx, e, t.asset)
		if err != nil {
			return fail("Error finding asset %q: %v", t.asset, err)
		}
		tx.Asset, label = a.ID, a.Label()
		if tx.Currency == "" {
			tx.Currency = a.Currency
		}
		if tx.Type == pit.Dividend && tx.Quantity.IsZero() {
			// Default to the shares held on the payment day.
			ledger, err := e.store.Ledger(ctx)
			if err != nil {
				return fail("Error loading ledger: %v", err)
			}
			h, err := ledger.Holding(a.ID, day, pit.Money{})
			if err != nil {
				return fail("Error computing holding: %v", err)
			}
			tx.Quantity = h.NetQuantity
		}
	}

	saved, err := e.store.AddTransaction(ctx, tx)
	if err != nil {
		return fail("Error recording %s: %v", tx.Type, err)
	}
	net, err := pit.Normalize(saved)
	if err != nil {
		return fail("Error: %v", err)
	}
	fmt.Fprintf(out, "Recorded %s %s on %s (#%d), net cash flow %s\n", saved.Type, label, saved.Date, saved.ID, net.SignedString())
	return subcommands.ExitSuccess
}

type buyCmd struct {
	txFlags
	quantity string
	price    string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of an asset" }
func (*buyCmd) Usage() string {
	return `pit buy -s <asset> -q <quantity> -p <price> [-d <date>] [-fees <amount>] [-c <currency>] [-m <notes>]

  Records a purchase. The cash paid is quantity × price + fees.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, true)
	f.StringVar(&c.quantity, "q", "", "Quantity bought")
	f.StringVar(&c.price, "p", "", "Price per unit")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := parseDecimal("q", c.quantity)
	if err != nil {
		return usage("Error: %v", err)
	}
	p, err := parseDecimal("p", c.price)
	if err != nil {
		return usage("Error: %v", err)
	}
	return c.record(ctx, pit.Transaction{Type: pit.Buy, Quantity: pit.Q(q), Price: p})
}

type sellCmd struct {
	txFlags
	quantity string
	price    string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record the sale of an asset" }
func (*sellCmd) Usage() string {
	return `pit sell -s <asset> -q <quantity> -p <price> [-d <date>] [-fees <amount>] [-c <currency>] [-m <notes>]

  Records a sale. The cash received is quantity × price − fees. Selling more
  than held on that day is rejected.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, true)
	f.StringVar(&c.quantity, "q", "", "Quantity sold")
	f.StringVar(&c.price, "p", "", "Price per unit")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := parseDecimal("q", c.quantity)
	if err != nil {
		return usage("Error: %v", err)
	}
	p, err := parseDecimal("p", c.price)
	if err != nil {
		return usage("Error: %v", err)
	}
	return c.record(ctx, pit.Transaction{Type: pit.Sell, Quantity: pit.Q(q), Price: p})
}

type dividendCmd struct {
	txFlags
	shares string
	amount string
}

func (*dividendCmd) Name() string     { return "dividend" }
func (*dividendCmd) Synopsis() string { return "record a dividend payment" }
func (*dividendCmd) Usage() string {
	return `pit dividend -s <asset> -a <per share> [-q <shares>] [-d <date>] [-fees <withholding>] [-c <currency>] [-m <notes>]

  Records a dividend. The cash received is shares × amount per share − fees.
  Shares default to the quantity held on the payment day.
`
}

func (c *dividendCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, true)
	f.StringVar(&c.shares, "q", "", "Number of shares entitled, defaults to the holding")
	f.StringVar(&c.amount, "a", "", "Amount paid per share")
}

func (c *dividendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := parseDecimal("q", c.shares)
	if err != nil {
		return usage("Error: %v", err)
	}
	a, err := parseDecimal("a", c.amount)
	if err != nil {
		return usage("Error: %v", err)
	}
	return c.record(ctx, pit.Transaction{Type: pit.Dividend, Quantity: pit.Q(q), Price: a})
}

type feeCmd struct {
	txFlags
	amount string
}

func (*feeCmd) Name() string     { return "fee" }
func (*feeCmd) Synopsis() string { return "record a fee not attached to any asset" }
func (*feeCmd) Usage() string {
	return `pit fee -a <amount> [-d <date>] [-c <currency>] [-m <notes>]

  Records a standalone fee, like custody or account fees.
`
}

func (c *feeCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, false)
	f.StringVar(&c.amount, "a", "", "Fee amount")
}

func (c *feeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := parseDecimal("a", c.amount)
	if err != nil {
		return usage("Error: %v", err)
	}
	return c.record(ctx, pit.Transaction{Type: pit.Fee, Price: a})
}
