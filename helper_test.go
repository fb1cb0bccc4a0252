package pit

import (
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// Asset ids used across tests.
const (
	AAPL int64 = iota + 1
	MSFT
	BTC
	VUSA
	LIVRET
)

var testAssets = []Asset{
	{ID: AAPL, Ticker: "AAPL", Name: "Apple Inc.", Type: Stock, Currency: "USD"},
	{ID: MSFT, Ticker: "MSFT", Name: "Microsoft Corp.", Type: Stock, Currency: "USD"},
	{ID: BTC, Ticker: "BTC-USD", Name: "Bitcoin", Type: Crypto, Currency: "USD"},
	{ID: VUSA, Ticker: "VUSA.L", Name: "Vanguard S&P 500 ETF", Type: ETF, Currency: "GBP"},
	{ID: LIVRET, Name: "Livret A", Type: Savings, Currency: "EUR"},
}

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// GBP is a helper for test to create pound money from const
func GBP(v float64) Money { return M(v, "GBP") }

// dec parses a decimal literal.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// day parses a date literal.
func day(s string) date.Date { return date.MustParse(s) }

func buy(on string, asset int64, q, price, fees string) Transaction {
	return NewBuy(day(on), asset, Q(dec(q)), dec(price), dec(fees), "USD")
}

func sell(on string, asset int64, q, price, fees string) Transaction {
	return NewSell(day(on), asset, Q(dec(q)), dec(price), dec(fees), "USD")
}

func dividend(on string, asset int64, shares, amount string) Transaction {
	return NewDividend(day(on), asset, Q(dec(shares)), dec(amount), decimal.Zero, "USD")
}

func fee(on, amount string) Transaction {
	return NewFee(day(on), dec(amount), "USD", "Account Maintenance Fee")
}
