package pit

import (
	"testing"

	"github.com/etnz/pit/date"
)

func testPortfolio() (*Ledger, *MarketData) {
	gbp := buy("2025-04-01", VUSA, "20", "72.00", "0.50")
	gbp.Currency = "GBP"
	livret := buy("2025-01-02", LIVRET, "1000", "1", "0")
	livret.Currency = "EUR"

	ledger := NewLedger(
		livret,
		buy("2025-02-10", MSFT, "20", "275.00", "1.00"),
		buy("2025-03-15", AAPL, "10", "170.50", "1.00"),
		buy("2025-03-20", BTC, "0.05", "44500.00", "5.50"),
		dividend("2025-03-25", MSFT, "20", "0.75"),
		gbp,
		fee("2025-04-02", "5.00"),
	)
	market := NewMarketData()
	market.SetRate("EUR", "USD", day("2025-01-01"), dec("1.25"))
	market.SetRate("GBP", "USD", day("2025-01-01"), dec("1.5"))
	market.SetPrice(AAPL, day("2025-03-31"), USD(160))
	market.SetPrice(AAPL, day("2025-04-30"), USD(180))
	market.SetPrice(MSFT, day("2025-03-31"), USD(300))
	market.SetPrice(MSFT, day("2025-04-30"), USD(270))
	return ledger, market
}

func TestNewHoldingsReport(t *testing.T) {
	ledger, market := testPortfolio()
	r, err := NewHoldingsReport(testAssets, ledger, market, day("2025-04-30"), "USD")
	if err != nil {
		t.Fatalf("NewHoldingsReport() unexpected error: %v", err)
	}
	if len(r.Holdings) != 5 {
		t.Fatalf("NewHoldingsReport() has %d lines, want 5", len(r.Holdings))
	}

	want := map[int64]Money{
		AAPL:   USD(1800), // market price
		MSFT:   USD(5400), // market price
		BTC:    USD(2225), // last trade price
		VUSA:   USD(2160), // last trade price, 1440 GBP
		LIVRET: USD(1250), // unit price, 1000 EUR
	}
	total := USD(0)
	for _, l := range r.Holdings {
		if !l.Value.Equal(want[l.Asset.ID]) {
			t.Errorf("%s value = %v, want %v", l.Asset.Label(), l.Value.Decimal(), want[l.Asset.ID].Decimal())
		}
		if !l.Priced {
			t.Errorf("%s is not priced", l.Asset.Label())
		}
		total = total.Add(want[l.Asset.ID])
	}
	if !r.TotalValue.Equal(total) {
		t.Errorf("TotalValue = %v, want %v", r.TotalValue, total)
	}
	if !r.Dividends.Equal(USD(15)) {
		t.Errorf("Dividends = %v, want %v", r.Dividends, USD(15))
	}

	cash := make(map[string]Money)
	for _, c := range r.Cash {
		cash[c.Currency] = c.Balance
	}
	// 5501 + 1706 + 2230.50 + 5 - 15
	if want := USD(-9427.50); !cash["USD"].Equal(want) {
		t.Errorf("USD cash = %v, want %v", cash["USD"], want)
	}
	if want := GBP(-1440.50); !cash["GBP"].Equal(want) {
		t.Errorf("GBP cash = %v, want %v", cash["GBP"], want)
	}
}

func TestNewHoldingsReport_MissingRate(t *testing.T) {
	ledger, _ := testPortfolio()
	if _, err := NewHoldingsReport(testAssets, ledger, NewMarketData(), day("2025-04-30"), "USD"); err == nil {
		t.Error("NewHoldingsReport() without rates succeeded, want an error")
	}
}

func TestAllocation(t *testing.T) {
	ledger, market := testPortfolio()
	r, err := NewHoldingsReport(testAssets, ledger, market, day("2025-04-30"), "USD")
	if err != nil {
		t.Fatalf("NewHoldingsReport() unexpected error: %v", err)
	}
	got := r.Allocation()
	wantTypes := []AssetType{Stock, Crypto, ETF, Savings}
	wantValues := []Money{USD(7200), USD(2225), USD(2160), USD(1250)}
	if len(got) != len(wantTypes) {
		t.Fatalf("Allocation() has %d slices, want %d", len(got), len(wantTypes))
	}
	sum := P(0)
	for i, s := range got {
		if s.Type != wantTypes[i] || !s.Value.Equal(wantValues[i]) {
			t.Errorf("Allocation()[%d] = %s %v, want %s %v", i, s.Type, s.Value, wantTypes[i], wantValues[i])
		}
		sum = Percent{value: sum.value.Add(s.Percent.value)}
	}
	if !sum.Round(6).Equal(P(100)) {
		t.Errorf("Allocation() percents sum to %v, want 100%%", sum)
	}
}

func TestNewMoversReport(t *testing.T) {
	ledger, market := testPortfolio()
	holdings, err := NewHoldingsReport(testAssets, ledger, market, day("2025-04-30"), "USD")
	if err != nil {
		t.Fatalf("NewHoldingsReport() unexpected error: %v", err)
	}
	r := NewMoversReport(holdings, ledger, market, date.Monthly, 5)
	if r.Range.From != day("2025-03-31") {
		t.Errorf("Range.From = %v, want 2025-03-31", r.Range.From)
	}
	if len(r.Gainers) != 1 || r.Gainers[0].Asset.ID != AAPL {
		t.Fatalf("Gainers = %v, want AAPL only", r.Gainers)
	}
	if want := P(12.5); !r.Gainers[0].ChangePercent.Equal(want) {
		t.Errorf("AAPL change = %v, want %v", r.Gainers[0].ChangePercent, want)
	}
	if len(r.Losers) != 1 || r.Losers[0].Asset.ID != MSFT {
		t.Fatalf("Losers = %v, want MSFT only", r.Losers)
	}
	if want := P(-10); !r.Losers[0].ChangePercent.Equal(want) {
		t.Errorf("MSFT change = %v, want %v", r.Losers[0].ChangePercent, want)
	}

	r = NewMoversReport(holdings, ledger, market, date.Monthly, 0)
	if len(r.Gainers)+len(r.Losers) != 0 {
		t.Errorf("NewMoversReport(n=0) returned movers")
	}
}

func TestEstimateDividends(t *testing.T) {
	ledger := NewLedger(
		buy("2025-01-02", MSFT, "30", "275", "0"),
		dividend("2025-01-15", MSFT, "30", "0.70"),
		dividend("2025-04-15", MSFT, "30", "0.75"),
		buy("2025-01-02", AAPL, "10", "170", "0"),
		dividend("2025-02-10", AAPL, "10", "0.24"),
		buy("2025-01-02", BTC, "1", "40000", "0"),
	)

	holdings, err := NewHoldingsReport(testAssets, ledger, nil, day("2025-05-01"), "USD")
	if err != nil {
		t.Fatalf("NewHoldingsReport() unexpected error: %v", err)
	}
	got := EstimateDividends(holdings, ledger, 90)
	// AAPL next is a year after its single dividend, beyond the horizon.
	if len(got) != 1 {
		t.Fatalf("EstimateDividends() = %v, want 1 estimate", got)
	}
	e := got[0]
	// 90 days between the two MSFT dividends.
	if e.Asset.ID != MSFT || e.Date != day("2025-07-14") {
		t.Errorf("estimate = %s on %v, want MSFT on 2025-07-14", e.Asset.Label(), e.Date)
	}
	if !e.PerShare.Equal(USD(0.75)) || !e.Amount.Equal(USD(22.5)) {
		t.Errorf("estimate = %v per share, %v total, want 0.75 and 22.50", e.PerShare, e.Amount)
	}

	got = EstimateDividends(holdings, ledger, 365)
	if len(got) != 2 || got[1].Asset.ID != AAPL || got[1].Date != day("2026-02-10") {
		t.Errorf("EstimateDividends(365) = %v, want MSFT then AAPL on 2026-02-10", got)
	}
}

func TestNewDashboard(t *testing.T) {
	ledger, market := testPortfolio()
	d, err := NewDashboard(testAssets, ledger, market, day("2025-04-30"), date.Monthly, "USD")
	if err != nil {
		t.Fatalf("NewDashboard() unexpected error: %v", err)
	}
	// On 2025-03-31: AAPL 1600, MSFT 6000, BTC 2225, LIVRET 1250, no VUSA yet.
	if want := USD(11075); !d.StartValue.Equal(want) {
		t.Errorf("StartValue = %v, want %v", d.StartValue, want)
	}
	if want := USD(12835); !d.Value.Equal(want) {
		t.Errorf("Value = %v, want %v", d.Value, want)
	}
	if want := USD(1760); !d.Change.Equal(want) {
		t.Errorf("Change = %v, want %v", d.Change, want)
	}
	if len(d.Allocation) == 0 || d.Movers == nil {
		t.Errorf("NewDashboard() is missing cards")
	}
}
