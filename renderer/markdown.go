// Package renderer turns reports into markdown documents, HTML pages and
// charts.
package renderer

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	md "github.com/nao1215/markdown"
)

// AssetsMarkdown renders the list of assets.
func AssetsMarkdown(assets []pit.Asset) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Assets")
	if len(assets) == 0 {
		doc.PlainText("No assets yet.")
		return doc.String()
	}
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []string{fmt.Sprint(a.ID), a.Ticker, a.Name, string(a.Type), a.Currency, a.ISIN})
	}
	doc.Table(md.TableSet{
		Header: []string{"ID", "Ticker", "Name", "Type", "Currency", "ISIN"},
		Rows:   rows,
	})
	return doc.String()
}

// HoldingsMarkdown renders a holdings report.
func HoldingsMarkdown(r *pit.HoldingsReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Holdings on %s", r.Date))
	doc.PlainText(fmt.Sprintf("Total Value: %s", r.TotalValue))
	doc.PlainText(fmt.Sprintf("Unrealized Gain/Loss: %s (%s)", r.GainLoss.SignedString(), r.GainLossPercent.SignedString()))

	if len(r.Holdings) == 0 {
		doc.PlainText("No holdings.")
		return doc.String()
	}

	rows := make([][]string, 0, len(r.Holdings))
	for _, l := range r.Holdings {
		price := l.Price.String()
		if !l.Priced {
			price = "n/a"
		}
		rows = append(rows, []string{
			l.Asset.Label(),
			string(l.Asset.Type),
			l.NetQuantity.String(),
			l.WeightedAvgCost.String(),
			price,
			l.MarketValue.String(),
			l.GainLoss.SignedString(),
			l.GainLossPercent.SignedString(),
			l.Weight.String(),
		})
	}
	doc.H2("Positions")
	doc.Table(md.TableSet{
		Header: []string{"Asset", "Type", "Quantity", "Avg. Cost", "Price", "Market Value", "Gain/Loss", "Gain/Loss %", "Weight"},
		Rows:   rows,
	})

	doc.H2("Income")
	doc.Table(md.TableSet{
		Header: []string{"Realized Gains", "Dividends", "Cost Basis"},
		Rows:   [][]string{{r.RealizedGain.SignedString(), r.Dividends.String(), r.TotalCostBasis.String()}},
	})

	if len(r.Cash) > 0 {
		rows := make([][]string, 0, len(r.Cash))
		for _, c := range r.Cash {
			rows = append(rows, []string{c.Currency, c.Balance.SignedString(), c.Value.SignedString()})
		}
		doc.H2("Net Cash Flows")
		doc.Table(md.TableSet{
			Header: []string{"Currency", "Balance", fmt.Sprintf("Value (%s)", r.Currency)},
			Rows:   rows,
		})
	}
	return doc.String()
}

// TransactionsMarkdown renders transactions newest first, with their net
// amount. assets resolves asset names, fees show their notes instead.
func TransactionsMarkdown(txs []pit.Transaction, assets map[int64]pit.Asset) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")
	if len(txs) == 0 {
		doc.PlainText("No transactions yet.")
		return doc.String()
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b pit.Transaction) int { return b.Date.Compare(a.Date) })

	rows := make([][]string, 0, len(sorted))
	for _, tx := range sorted {
		name := tx.Notes
		if a, ok := assets[tx.Asset]; ok {
			name = a.Label()
		}
		quantity := ""
		if tx.Type != pit.Fee {
			quantity = tx.Quantity.String()
		}
		net := "n/a"
		if flow, err := pit.Normalize(tx); err == nil {
			net = flow.SignedString()
		}
		rows = append(rows, []string{
			tx.Date.String(),
			string(tx.Type),
			name,
			quantity,
			pit.M(tx.Price, tx.Currency).String(),
			pit.M(tx.Fees, tx.Currency).String(),
			net,
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Date", "Type", "Asset", "Quantity", "Price", "Fees", "Net Amount"},
		Rows:   rows,
	})
	return doc.String()
}

// AllocationMarkdown renders the allocation by asset type.
func AllocationMarkdown(alloc []pit.AllocationSlice) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Allocation")
	writeAllocation(doc, alloc)
	return doc.String()
}

func writeAllocation(doc *md.Markdown, alloc []pit.AllocationSlice) {
	if len(alloc) == 0 {
		doc.PlainText("Nothing allocated.")
		return
	}
	rows := make([][]string, 0, len(alloc))
	for _, s := range alloc {
		rows = append(rows, []string{string(s.Type), s.Value.String(), s.Percent.String()})
	}
	doc.Table(md.TableSet{Header: []string{"Type", "Value", "Share"}, Rows: rows})
}

// MoversMarkdown renders the top gainers and losers.
func MoversMarkdown(r *pit.MoversReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2(fmt.Sprintf("Top Movers (%s)", r.Period))
	writeMovers(doc, r)
	return doc.String()
}

func writeMovers(doc *md.Markdown, r *pit.MoversReport) {
	if len(r.Gainers)+len(r.Losers) == 0 {
		doc.PlainText("No price change over the period.")
		return
	}
	var rows [][]string
	for _, m := range slices.Concat(r.Gainers, r.Losers) {
		rows = append(rows, []string{m.Asset.Label(), m.From.String(), m.To.String(), m.ChangePercent.SignedString()})
	}
	doc.Table(md.TableSet{Header: []string{"Asset", "From", "To", "Change"}, Rows: rows})
}

// DividendsMarkdown renders upcoming estimated dividends.
func DividendsMarkdown(estimates []pit.DividendEstimate) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Upcoming Dividends (Estimated)")
	writeDividends(doc, estimates)
	return doc.String()
}

func writeDividends(doc *md.Markdown, estimates []pit.DividendEstimate) {
	if len(estimates) == 0 {
		doc.PlainText("No upcoming estimated dividends.")
		return
	}
	rows := make([][]string, 0, len(estimates))
	for _, e := range estimates {
		rows = append(rows, []string{e.Asset.Label(), e.Date.String(), e.PerShare.String() + "/share", e.Amount.String()})
	}
	doc.Table(md.TableSet{Header: []string{"Asset", "Date", "Per Share", "Amount"}, Rows: rows})
	doc.PlainText("*Estimates based on past dividend events.*")
}

// DashboardMarkdown renders the dashboard.
func DashboardMarkdown(d *pit.Dashboard) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Portfolio on %s", d.Date))
	doc.PlainText(fmt.Sprintf("Total Value: %s", d.Value))
	doc.PlainText(fmt.Sprintf("%s change: %s (%s) since %s",
		periodLabel(d.Period), d.Change.SignedString(), d.ChangePercent.SignedString(), pit.ReferenceDate(d.Date, d.Period)))

	doc.H2("Allocation")
	writeAllocation(doc, d.Allocation)
	doc.H2(fmt.Sprintf("Top Movers (%s)", d.Period))
	writeMovers(doc, d.Movers)
	doc.H2("Upcoming Dividends (Estimated)")
	writeDividends(doc, d.Dividends)
	return doc.String()
}

func periodLabel(p date.Period) string {
	s := p.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
