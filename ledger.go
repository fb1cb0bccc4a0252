package pit

import (
	"iter"
	"slices"
	"sort"

	"github.com/etnz/pit/date"
)

// Ledger represents a list of transactions.
//
// In a Ledger transactions are always in chronological order, transactions
// of the same day keep the order in which they were appended.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates a ledger holding txs.
func NewLedger(txs ...Transaction) *Ledger {
	l := &Ledger{}
	l.Append(txs...)
	return l
}

// Append appends transactions to this ledger and maintains the chronological order of transactions.
func (l *Ledger) Append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
}

// stableSort sorts the ledger by transaction date. The sort is stable, meaning
// transactions on the same day maintain their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions returns an iterator over the transactions accepted by all the
// filters, in chronological order.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
	next:
		for i, tx := range l.transactions {
			for _, accept := range filters {
				if !accept(tx) {
					continue next
				}
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Collect returns the transactions accepted by all the filters.
func (l *Ledger) Collect(filters ...func(Transaction) bool) []Transaction {
	var txs []Transaction
	for _, tx := range l.Transactions(filters...) {
		txs = append(txs, tx)
	}
	return txs
}

// OfAsset accepts the transactions of an asset.
func OfAsset(asset int64) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Asset == asset }
}

// OfType accepts the transactions of a type.
func OfType(t TxType) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Type == t }
}

// Until accepts the transactions on or before a date.
func Until(on date.Date) func(Transaction) bool {
	return func(tx Transaction) bool { return !tx.Date.After(on) }
}

// In accepts the transactions within a date range.
func In(r date.Range) func(Transaction) bool {
	return func(tx Transaction) bool { return r.Contains(tx.Date) }
}

// AssetIDs returns the assets referenced by the ledger, in order of first appearance.
func (l *Ledger) AssetIDs() []int64 {
	var ids []int64
	for _, tx := range l.transactions {
		if tx.Asset != 0 && !slices.Contains(ids, tx.Asset) {
			ids = append(ids, tx.Asset)
		}
	}
	return ids
}

// Currencies returns the transaction currencies, in order of first appearance.
func (l *Ledger) Currencies() []string {
	var curs []string
	for _, tx := range l.transactions {
		if !slices.Contains(curs, tx.Currency) {
			curs = append(curs, tx.Currency)
		}
	}
	return curs
}

// Holding aggregates the position in an asset on a given date.
func (l *Ledger) Holding(asset int64, on date.Date, price Money) (HoldingSnapshot, error) {
	return Aggregate(l.Collect(OfAsset(asset), Until(on)), price)
}

// CashBalance sums the net cash flows in a currency up to a date.
func (l *Ledger) CashBalance(currency string, on date.Date) (Money, error) {
	balance := M(0, currency)
	for _, tx := range l.Transactions(Until(on)) {
		if tx.Currency != currency {
			continue
		}
		flow, err := Normalize(tx)
		if err != nil {
			return Money{}, err
		}
		balance = balance.Add(flow)
	}
	return balance, nil
}

// LastTradePrice returns the price of the latest buy or sell of an asset on
// or before a date.
func (l *Ledger) LastTradePrice(asset int64, on date.Date) (Money, bool) {
	var (
		price Money
		found bool
	)
	for _, tx := range l.Transactions(OfAsset(asset), Until(on)) {
		if tx.Type == Buy || tx.Type == Sell {
			price, found = M(tx.Price, tx.Currency), true
		}
	}
	return price, found
}

// ForAsset returns the transactions of an asset, in chronological order.
func (l *Ledger) ForAsset(asset int64) []Transaction { return l.Collect(OfAsset(asset)) }

// Dividends returns the dividend events of an asset, in chronological order.
func (l *Ledger) Dividends(asset int64) []Transaction {
	return l.Collect(OfAsset(asset), OfType(Dividend))
}
