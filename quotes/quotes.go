// Package quotes fetches the latest asset prices from HTTP JSON endpoints.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/pit"
	"github.com/etnz/pit/config"
	"github.com/etnz/pit/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TickerPlaceholder is replaced by the escaped ticker in quote URLs.
const TickerPlaceholder = "{ticker}"

// PriceSink records fetched prices. *store.Store implements it.
type PriceSink interface {
	SetPrice(ctx context.Context, assetID int64, on date.Date, price pit.Money) error
}

// Fetcher retrieves quotes as configured.
type Fetcher struct {
	client *http.Client
	cfg    config.QuotesConfig
	log    zerolog.Logger
}

// New returns a fetcher. A nil client means a client with the configured timeout.
func New(cfg config.QuotesConfig, client *http.Client, log zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.GetTimeout()}
	}
	return &Fetcher{client: client, cfg: cfg, log: log.With().Str("component", "quotes").Logger()}
}

// Quote returns the latest price of a ticker.
func (f *Fetcher) Quote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	tmpl, path := f.cfg.Source(ticker)
	if tmpl == "" || path == "" {
		return decimal.Decimal{}, fmt.Errorf("no quote source configured for %q", ticker)
	}
	addr := strings.ReplaceAll(tmpl, TickerPlaceholder, url.PathEscape(ticker))

	var jobj any
	if err := jwget(ctx, f.client, addr, &jobj); err != nil {
		return decimal.Decimal{}, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: %q %w", ticker, path, err)
	}
	// jsonpath may return a list of 1 answer, or a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return parsePrice(ticker, jval)
}

// parsePrice reads a JSON number, or a number written as a string.
func parsePrice(ticker string, jval any) (decimal.Decimal, error) {
	var (
		price decimal.Decimal
		err   error
	)
	switch v := jval.(type) {
	case float64:
		price = decimal.NewFromFloat(v)
	case string:
		// some APIs use a decimal comma.
		s := strings.ReplaceAll(strings.TrimSpace(v), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		if price, err = decimal.NewFromString(s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("cannot read %q price: invalid value %q: %w", ticker, v, err)
		}
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot read %q price: %v is neither a number nor a string", ticker, jval)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("cannot read %q price: %s is not a price", ticker, price)
	}
	return price, nil
}

// Update fetches the price of every asset with a ticker and records it on
// day "on" in the asset currency. Failures are logged and joined in the
// returned error, they do not stop the other assets.
func (f *Fetcher) Update(ctx context.Context, assets []pit.Asset, sink PriceSink, on date.Date) (int, error) {
	var (
		errs    []error
		updated int
	)
	for _, a := range assets {
		if a.Ticker == "" {
			continue
		}
		price, err := f.Quote(ctx, a.Ticker)
		if err == nil {
			err = sink.SetPrice(ctx, a.ID, on, pit.M(price, a.Currency))
		}
		if err != nil {
			f.log.Warn().Err(err).Str("ticker", a.Ticker).Msg("quote update failed")
			errs = append(errs, err)
			continue
		}
		f.log.Info().Str("ticker", a.Ticker).Stringer("price", price).Stringer("date", on).Msg("quote updated")
		updated++
	}
	return updated, errors.Join(errs...)
}
