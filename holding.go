package pit

import (
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// HoldingSnapshot is the position in one asset derived from its ledger.
// It is never persisted, Aggregate recomputes it on demand.
type HoldingSnapshot struct {
	Asset           int64
	NetQuantity     Quantity
	WeightedAvgCost Money
	TotalCostBasis  Money
	MarketValue     Money
	GainLoss        Money
	GainLossPercent Percent

	// RealizedGain is the sum over sells of the proceeds minus the cost of the units sold.
	RealizedGain Money
	// Dividends is the sum of dividend net cash flows.
	Dividends Money
}

// Aggregate folds the transactions of a single asset into a holding
// snapshot valued at currentPrice.
//
// Transactions must be sorted by ascending date, transactions on the same
// day are processed in the given order. Fee transactions are validated, then
// ignored.
// Cost basis follows the average cost method: a sell removes a share of the
// basis proportional to the quantity sold.
//
// Any invalid transaction aborts the aggregation: the snapshot is either
// computed from the whole ledger or not at all. Selling more than held
// returns an *InsufficientHoldingsError.
func Aggregate(txs []Transaction, currentPrice Money) (HoldingSnapshot, error) {
	var (
		asset    int64
		currency = currentPrice.Currency()
		last     date.Date
		quantity Quantity
		basis    decimal.Decimal
		realized decimal.Decimal
		income   decimal.Decimal
	)

	if currentPrice.IsNegative() {
		return HoldingSnapshot{}, invalid("price", "current price must not be negative, got %s", currentPrice.value)
	}

	for _, tx := range txs {
		flow, err := Normalize(tx)
		if err != nil {
			return HoldingSnapshot{}, err
		}
		if tx.Type == Fee {
			continue
		}
		if asset == 0 {
			asset = tx.Asset
		} else if tx.Asset != asset {
			return HoldingSnapshot{}, invalid("asset", "ledger of asset %d contains a transaction of asset %d", asset, tx.Asset)
		}
		if currency == "" {
			currency = tx.Currency
		} else if tx.Currency != currency {
			return HoldingSnapshot{}, invalid("currency", "%s transaction on %s is in %s, expected %s", tx.Type, tx.Date, tx.Currency, currency)
		}
		if tx.Date.Before(last) {
			return HoldingSnapshot{}, invalid("date", "transaction on %s comes after %s, ledger must be sorted by date", tx.Date, last)
		}
		last = tx.Date

		switch tx.Type {
		case Buy:
			basis = basis.Add(flow.value.Neg())
			quantity = quantity.Add(tx.Quantity)
		case Sell:
			if quantity.LessThan(tx.Quantity) {
				return HoldingSnapshot{}, &InsufficientHoldingsError{Asset: tx.Asset, Date: tx.Date, Held: quantity, Requested: tx.Quantity}
			}
			var costOfSale decimal.Decimal
			if tx.Quantity.Equal(quantity) {
				costOfSale = basis // closing the position leaves no residue.
			} else {
				costOfSale = basis.Mul(tx.Quantity.value).Div(quantity.value)
			}
			realized = realized.Add(flow.value.Sub(costOfSale))
			basis = basis.Sub(costOfSale)
			quantity = quantity.Sub(tx.Quantity)
		case Dividend:
			income = income.Add(flow.value)
		}
	}

	snapshot := HoldingSnapshot{
		Asset:           asset,
		NetQuantity:     quantity,
		TotalCostBasis:  M(basis, currency),
		WeightedAvgCost: M(decimal.Zero, currency),
		RealizedGain:    M(realized, currency),
		Dividends:       M(income, currency),
	}
	if quantity.IsPositive() {
		snapshot.WeightedAvgCost = snapshot.TotalCostBasis.Div(quantity)
	}
	snapshot.MarketValue = M(currentPrice.value, currency).Mul(quantity)
	snapshot.GainLoss = snapshot.MarketValue.Sub(snapshot.TotalCostBasis)
	snapshot.GainLossPercent = snapshot.GainLoss.Ratio(snapshot.TotalCostBasis)
	return snapshot, nil
}
