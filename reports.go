package pit

import (
	"cmp"
	"slices"

	"github.com/etnz/pit/date"
)

// HoldingsReport represents the portfolio holdings at a specific date,
// valued in a reporting currency.
type HoldingsReport struct {
	Date     date.Date
	Currency string
	Holdings []HoldingLine
	Cash     []CashLine

	// Totals, in the reporting currency.
	TotalValue      Money
	TotalCostBasis  Money
	GainLoss        Money
	GainLossPercent Percent
	RealizedGain    Money
	Dividends       Money
}

// HoldingLine is the position in a single asset.
type HoldingLine struct {
	Asset Asset
	HoldingSnapshot
	Price  Money   // in the asset currency
	Priced bool    // false when no price could be resolved
	Value  Money   // market value in the reporting currency
	Weight Percent // share of the total value
}

// CashLine is the sum of net cash flows in one currency: cash paid out is
// negative, cash received positive.
type CashLine struct {
	Currency string
	Balance  Money // in its own currency
	Value    Money // in the reporting currency
}

// ResolvePrice returns the price of an asset on a day: the market data price
// if any, else the last trade price found in the ledger. Savings and Cash
// assets default to a unit price of 1.
func ResolvePrice(a Asset, ledger *Ledger, market *MarketData, on date.Date) (Money, bool) {
	if market != nil {
		if p, ok := market.Price(a.ID, on); ok {
			return p, true
		}
	}
	if ledger != nil {
		if p, ok := ledger.LastTradePrice(a.ID, on); ok {
			return p, true
		}
	}
	if !a.Type.Tradeable() {
		return M(1, a.Currency), true
	}
	return M(0, a.Currency), false
}

// NewHoldingsReport computes the holdings of every asset having at least one
// transaction on or before on.
func NewHoldingsReport(assets []Asset, ledger *Ledger, market *MarketData, on date.Date, currency string) (*HoldingsReport, error) {
	if market == nil {
		market = NewMarketData()
	}
	r := &HoldingsReport{
		Date:           on,
		Currency:       currency,
		TotalValue:     M(0, currency),
		TotalCostBasis: M(0, currency),
		RealizedGain:   M(0, currency),
		Dividends:      M(0, currency),
	}
	convert := func(m Money) (Money, error) { return market.Convert(m, currency, on) }

	for _, a := range assets {
		txs := ledger.Collect(OfAsset(a.ID), Until(on))
		if len(txs) == 0 {
			continue
		}
		price, priced := ResolvePrice(a, ledger, market, on)
		snapshot, err := Aggregate(txs, price)
		if err != nil {
			return nil, err
		}
		line := HoldingLine{Asset: a, HoldingSnapshot: snapshot, Price: price, Priced: priced}
		if line.Value, err = convert(snapshot.MarketValue); err != nil {
			return nil, err
		}
		basis, err := convert(snapshot.TotalCostBasis)
		if err != nil {
			return nil, err
		}
		realized, err := convert(snapshot.RealizedGain)
		if err != nil {
			return nil, err
		}
		income, err := convert(snapshot.Dividends)
		if err != nil {
			return nil, err
		}
		r.TotalValue = r.TotalValue.Add(line.Value)
		r.TotalCostBasis = r.TotalCostBasis.Add(basis)
		r.RealizedGain = r.RealizedGain.Add(realized)
		r.Dividends = r.Dividends.Add(income)
		r.Holdings = append(r.Holdings, line)
	}
	for i := range r.Holdings {
		r.Holdings[i].Weight = r.Holdings[i].Value.Ratio(r.TotalValue)
	}
	r.GainLoss = r.TotalValue.Sub(r.TotalCostBasis)
	r.GainLossPercent = r.GainLoss.Ratio(r.TotalCostBasis)

	for _, cur := range ledger.Currencies() {
		balance, err := ledger.CashBalance(cur, on)
		if err != nil {
			return nil, err
		}
		if balance.IsZero() {
			continue
		}
		value, err := convert(balance)
		if err != nil {
			return nil, err
		}
		r.Cash = append(r.Cash, CashLine{Currency: cur, Balance: balance, Value: value})
	}
	return r, nil
}

// Held returns the lines with a positive quantity.
func (r *HoldingsReport) Held() []HoldingLine {
	var lines []HoldingLine
	for _, l := range r.Holdings {
		if l.NetQuantity.IsPositive() {
			lines = append(lines, l)
		}
	}
	return lines
}

// AllocationSlice is the share of the portfolio value held in one asset type.
type AllocationSlice struct {
	Type    AssetType
	Value   Money
	Percent Percent
}

// Allocation groups the holdings value by asset type, largest first.
// Types with no value are omitted.
func (r *HoldingsReport) Allocation() []AllocationSlice {
	var alloc []AllocationSlice
	for _, t := range AssetTypes {
		value := M(0, r.Currency)
		for _, l := range r.Holdings {
			if l.Asset.Type == t {
				value = value.Add(l.Value)
			}
		}
		if !value.IsPositive() {
			continue
		}
		alloc = append(alloc, AllocationSlice{Type: t, Value: value, Percent: value.Ratio(r.TotalValue)})
	}
	slices.SortStableFunc(alloc, func(a, b AllocationSlice) int {
		return b.Value.value.Cmp(a.Value.value)
	})
	return alloc
}

// ReferenceDate returns the day whose closing values a period change on
// "on" is measured against: the day before the period starts.
func ReferenceDate(on date.Date, period date.Period) date.Date {
	return on.StartOf(period).Add(-1)
}

// Mover is the price change of a held asset over a period.
type Mover struct {
	Asset         Asset
	From, To      Money
	Change        Money
	ChangePercent Percent
}

// MoversReport lists the top gainers and losers over a period.
type MoversReport struct {
	Period  date.Period
	Range   date.Range
	Gainers []Mover // best first
	Losers  []Mover // worst first
}

// NewMoversReport computes the price change of every asset held in holdings
// since the reference date of period, and keeps at most n gainers and n
// losers. Assets without a price at either date are skipped.
func NewMoversReport(holdings *HoldingsReport, ledger *Ledger, market *MarketData, period date.Period, n int) *MoversReport {
	on := holdings.Date
	ref := ReferenceDate(on, period)
	r := &MoversReport{Period: period, Range: date.Range{From: ref, To: on}}
	for _, line := range holdings.Held() {
		if !line.Asset.Type.Tradeable() || !line.Priced {
			continue
		}
		from, ok := ResolvePrice(line.Asset, ledger, market, ref)
		if !ok || from.IsZero() {
			continue
		}
		to := line.Price
		m := Mover{Asset: line.Asset, From: from, To: to, Change: to.Sub(from)}
		m.ChangePercent = m.Change.Ratio(from)
		switch {
		case m.ChangePercent.value.IsPositive():
			r.Gainers = append(r.Gainers, m)
		case m.ChangePercent.IsNegative():
			r.Losers = append(r.Losers, m)
		}
	}
	slices.SortStableFunc(r.Gainers, func(a, b Mover) int { return b.ChangePercent.value.Cmp(a.ChangePercent.value) })
	slices.SortStableFunc(r.Losers, func(a, b Mover) int { return a.ChangePercent.value.Cmp(b.ChangePercent.value) })
	if len(r.Gainers) > n {
		r.Gainers = r.Gainers[:n]
	}
	if len(r.Losers) > n {
		r.Losers = r.Losers[:n]
	}
	return r
}

// DividendEstimate is a projected dividend payment.
type DividendEstimate struct {
	Asset    Asset
	Date     date.Date
	PerShare Money
	Shares   Quantity
	Amount   Money
}

// defaultDividendInterval is assumed when an asset paid a single dividend.
const defaultDividendInterval = 365

// EstimateDividends projects the next dividend of every asset held in
// holdings from its past dividend events: the next payment comes one
// interval after the last one, the interval being the gap between the last
// two events, and pays the same amount per share. Estimates later than
// horizon days after the holdings date are dropped. Estimates are sorted by
// date.
func EstimateDividends(holdings *HoldingsReport, ledger *Ledger, horizon int) []DividendEstimate {
	var estimates []DividendEstimate
	on := holdings.Date
	limit := on.Add(horizon)
	for _, line := range holdings.Held() {
		a := line.Asset
		events := ledger.Collect(OfAsset(a.ID), OfType(Dividend), Until(on))
		if len(events) == 0 {
			continue
		}
		last := events[len(events)-1]
		interval := defaultDividendInterval
		if len(events) > 1 {
			if gap := last.Date.DaysSince(events[len(events)-2].Date); gap > 0 {
				interval = gap
			}
		}
		next := last.Date.Add(interval)
		for next.Before(on) {
			next = next.Add(interval)
		}
		if next.After(limit) {
			continue
		}
		perShare := M(last.Price, last.Currency)
		estimates = append(estimates, DividendEstimate{
			Asset:    a,
			Date:     next,
			PerShare: perShare,
			Shares:   line.NetQuantity,
			Amount:   perShare.Mul(line.NetQuantity),
		})
	}
	slices.SortStableFunc(estimates, func(a, b DividendEstimate) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.Asset.Label(), b.Asset.Label()))
	})
	return estimates
}

// Dashboard summarizes the portfolio value and its change over a period.
type Dashboard struct {
	Date          date.Date
	Period        date.Period
	Currency      string
	Value         Money
	StartValue    Money // value at the reference date
	Change        Money
	ChangePercent Percent
	Allocation    []AllocationSlice
	Movers        *MoversReport
	Dividends     []DividendEstimate
}

// Dashboard report defaults.
const (
	DashboardMovers  = 5
	DashboardHorizon = 90
)

// NewDashboard computes the dashboard on "on" for a period.
func NewDashboard(assets []Asset, ledger *Ledger, market *MarketData, on date.Date, period date.Period, currency string) (*Dashboard, error) {
	now, err := NewHoldingsReport(assets, ledger, market, on, currency)
	if err != nil {
		return nil, err
	}
	ref := ReferenceDate(on, period)
	before, err := NewHoldingsReport(assets, ledger, market, ref, currency)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Date:       on,
		Period:     period,
		Currency:   currency,
		Value:      now.TotalValue,
		StartValue: before.TotalValue,
		Change:     now.TotalValue.Sub(before.TotalValue),
		Allocation: now.Allocation(),
		Movers:     NewMoversReport(now, ledger, market, period, DashboardMovers),
		Dividends:  EstimateDividends(now, ledger, DashboardHorizon),
	}
	d.ChangePercent = d.Change.Ratio(d.StartValue)
	return d, nil
}
