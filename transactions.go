package pit

import (
	"encoding/json"
	"strings"

	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// TxType identifies the kind of a ledger transaction.
type TxType string

// Transaction types, spelled as they are persisted.
const (
	Buy      TxType = "Buy"
	Sell     TxType = "Sell"
	Dividend TxType = "Dividend"
	Fee      TxType = "Fee"
)

// ParseTxType parses a transaction type tag, case insensitive.
func ParseTxType(s string) (TxType, error) {
	for _, t := range []TxType{Buy, Sell, Dividend, Fee} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", &UnknownTransactionTypeError{Type: s}
}

// Transaction is one ledger event.
//
// Asset is zero, meaning no asset, only for Fee transactions. Quantity is
// zero, meaning absent, only for Fee transactions.
type Transaction struct {
	ID       int64
	Asset    int64
	Type     TxType
	Date     date.Date
	Quantity Quantity
	Price    decimal.Decimal // per unit for Buy and Sell, per share for Dividend, flat amount for Fee
	Fees     decimal.Decimal
	Currency string
	Notes    string
}

// NewBuy creates a new Buy transaction.
func NewBuy(day date.Date, asset int64, quantity Quantity, price, fees decimal.Decimal, currency string) Transaction {
	return Transaction{Asset: asset, Type: Buy, Date: day, Quantity: quantity, Price: price, Fees: fees, Currency: currency}
}

// NewSell creates a new Sell transaction.
func NewSell(day date.Date, asset int64, quantity Quantity, price, fees decimal.Decimal, currency string) Transaction {
	return Transaction{Asset: asset, Type: Sell, Date: day, Quantity: quantity, Price: price, Fees: fees, Currency: currency}
}

// NewDividend creates a new Dividend transaction, shares is the number of
// shares held at the record date and amount the amount paid per share.
func NewDividend(day date.Date, asset int64, shares Quantity, amount, fees decimal.Decimal, currency string) Transaction {
	return Transaction{Asset: asset, Type: Dividend, Date: day, Quantity: shares, Price: amount, Fees: fees, Currency: currency}
}

// NewFee creates a new Fee transaction, not attached to any asset.
func NewFee(day date.Date, amount decimal.Decimal, currency, notes string) Transaction {
	return Transaction{Type: Fee, Date: day, Price: amount, Currency: currency, Notes: notes}
}

// Gross returns quantity × price in the transaction currency.
func (t Transaction) Gross() Money { return M(t.Price, t.Currency).Mul(t.Quantity) }

// FeesAmount returns the transaction costs in the transaction currency.
func (t Transaction) FeesAmount() Money { return M(t.Fees, t.Currency) }

// Equal reports whether both transactions hold the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Asset == o.Asset && t.Type == o.Type && t.Date == o.Date &&
		t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) && t.Fees.Equal(o.Fees) &&
		t.Currency == o.Currency && t.Notes == o.Notes
}

// MarshalJSON encodes the transaction with a stable field order. Quantity
// and asset are null for fees.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	if t.Asset != 0 {
		w.Append("assetId", t.Asset)
	} else {
		w.Append("assetId", nil)
	}
	w.Append("type", t.Type)
	w.Append("date", t.Date)
	if t.Type == Fee {
		w.Append("quantity", nil)
	} else {
		w.Append("quantity", t.Quantity)
	}
	w.Append("price", t.Price)
	w.Append("fees", t.Fees)
	w.Append("currency", t.Currency)
	w.Optional("notes", t.Notes)
	return w.MarshalJSON()
}

// UnmarshalJSON decodes a transaction encoded by MarshalJSON. Missing fees
// default to zero.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID       int64            `json:"id"`
		Asset    *int64           `json:"assetId"`
		Type     TxType           `json:"type"`
		Date     date.Date        `json:"date"`
		Quantity *Quantity        `json:"quantity"`
		Price    decimal.Decimal  `json:"price"`
		Fees     *decimal.Decimal `json:"fees"`
		Currency string           `json:"currency"`
		Notes    string           `json:"notes"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction{
		ID:       temp.ID,
		Type:     temp.Type,
		Date:     temp.Date,
		Price:    temp.Price,
		Currency: temp.Currency,
		Notes:    temp.Notes,
	}
	if temp.Asset != nil {
		t.Asset = *temp.Asset
	}
	if temp.Quantity != nil {
		t.Quantity = *temp.Quantity
	}
	if temp.Fees != nil {
		t.Fees = *temp.Fees
	}
	return nil
}
