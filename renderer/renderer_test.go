package renderer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

var (
	aapl   = pit.Asset{ID: 1, Ticker: "AAPL", Name: "Apple Inc.", Type: pit.Stock, Currency: "USD"}
	livret = pit.Asset{ID: 2, Name: "Livret A", Type: pit.Savings, Currency: "USD"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testLedger() *pit.Ledger {
	return pit.NewLedger(
		pit.NewBuy(date.MustParse("2025-03-15"), aapl.ID, pit.Q(10), dec("170.50"), dec("1"), "USD"),
		pit.NewBuy(date.MustParse("2025-03-16"), livret.ID, pit.Q(500), dec("1"), dec("0"), "USD"),
		pit.NewFee(date.MustParse("2025-04-02"), dec("5"), "USD", "Account Maintenance Fee"),
	)
}

func assertContains(t *testing.T, doc string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(doc, p) {
			t.Errorf("document does not contain %q:\n%s", p, doc)
		}
	}
}

func TestTransactionsMarkdown(t *testing.T) {
	l := testLedger()
	doc := TransactionsMarkdown(l.Collect(), map[int64]pit.Asset{aapl.ID: aapl, livret.ID: livret})
	assertContains(t, doc, "# Transactions", "AAPL", "Livret A", "Account Maintenance Fee", "-$1,706.00", "-$5.00")

	// newest first
	if strings.Index(doc, "2025-04-02") > strings.Index(doc, "2025-03-15") {
		t.Errorf("transactions are not sorted newest first:\n%s", doc)
	}

	assertContains(t, TransactionsMarkdown(nil, nil), "No transactions yet.")
}

func TestHoldingsMarkdown(t *testing.T) {
	r, err := pit.NewHoldingsReport([]pit.Asset{aapl, livret}, testLedger(), nil, date.MustParse("2025-04-30"), "USD")
	if err != nil {
		t.Fatalf("NewHoldingsReport() unexpected error: %v", err)
	}
	doc := HoldingsMarkdown(r)
	assertContains(t, doc, "# Holdings on 2025-04-30", "AAPL", "$1,705.00", "Livret A", "Net Cash Flows", "-$2,211.00")
}

func TestDashboardMarkdown(t *testing.T) {
	d, err := pit.NewDashboard([]pit.Asset{aapl, livret}, testLedger(), pit.NewMarketData(), date.MustParse("2025-04-30"), date.Monthly, "USD")
	if err != nil {
		t.Fatalf("NewDashboard() unexpected error: %v", err)
	}
	doc := DashboardMarkdown(d)
	assertContains(t, doc, "Portfolio on 2025-04-30", "Monthly change", "Allocation", "Stock", "Savings", "No upcoming estimated dividends.")
}

func TestAssetsMarkdown(t *testing.T) {
	assertContains(t, AssetsMarkdown([]pit.Asset{aapl, livret}), "Apple Inc.", "Savings")
	assertContains(t, AssetsMarkdown(nil), "No assets yet.")
}

func TestHTML(t *testing.T) {
	page, err := HTML("Holdings", "# Title\n\n| A | B |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	assertContains(t, string(page), "<title>Holdings</title>", "<h1>Title</h1>", "<table>", "<td>1</td>")
}

func TestHTML_EscapesTitle(t *testing.T) {
	page, err := HTML("</title><script>alert(1)</script>", "# Title\n")
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	if strings.Contains(string(page), "<script>") {
		t.Errorf("HTML() does not escape the title:\n%s", page)
	}
	assertContains(t, string(page), "<title>&lt;/title&gt;&lt;script&gt;")
}

func TestAllocationChart(t *testing.T) {
	alloc := []pit.AllocationSlice{
		{Type: pit.Stock, Value: pit.M(1705, "USD"), Percent: pit.P(77.32)},
		{Type: pit.Savings, Value: pit.M(500, "USD"), Percent: pit.P(22.68)},
	}
	var buf bytes.Buffer
	if err := AllocationChart(&buf, alloc, SVG); err != nil {
		t.Fatalf("AllocationChart() unexpected error: %v", err)
	}
	assertContains(t, buf.String(), "<svg")

	if err := AllocationChart(&buf, nil, SVG); err == nil {
		t.Error("AllocationChart() with no value succeeded, want an error")
	}
}
