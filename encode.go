package pit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file contains the archive format used to import and export a whole
// portfolio. It is a JSONL stream, one command per line, human-readable and
// git-friendly:
//
//	{"command":"declare","asset":"AAPL","name":"Apple Inc.","assetType":"Stock","currency":"USD"}
//	{"command":"buy","date":"2025-03-15","asset":"AAPL","quantity":10,"price":170.5,"fees":1,"currency":"USD"}
//	{"command":"fee","date":"2025-04-02","amount":5,"currency":"USD","notes":"Account Maintenance Fee"}
//
// Transactions reference assets by label, so an archive carries no database
// identifier and can be replayed into an empty store.

// Archive commands.
const (
	CmdDeclare  = "declare"
	CmdBuy      = "buy"
	CmdSell     = "sell"
	CmdDividend = "dividend"
	CmdFee      = "fee"
)

// Archive is the decoded content of an archive stream.
//
// Assets carry provisional IDs, 1 for the first declared asset and so on, and
// Transactions reference them. Transactions are in chronological order.
type Archive struct {
	Assets       []Asset
	Transactions []Transaction
}

// Asset returns the archived asset with a provisional ID.
func (a *Archive) Asset(id int64) (Asset, bool) {
	if id < 1 || int(id) > len(a.Assets) {
		return Asset{}, false
	}
	return a.Assets[id-1], true
}

// EncodeArchive writes assets and the ledger as a JSONL archive. Every asset
// referenced by the ledger must be part of assets.
func EncodeArchive(w io.Writer, assets []Asset, ledger *Ledger) error {
	labels := make(map[int64]string, len(assets))
	for _, a := range assets {
		var obj jsonObjectWriter
		obj.Append("command", CmdDeclare)
		obj.Append("asset", a.Label())
		obj.Append("name", a.Name)
		obj.Append("assetType", a.Type)
		obj.Append("currency", a.Currency)
		obj.Optional("isin", a.ISIN)
		if err := writeLine(w, &obj); err != nil {
			return err
		}
		labels[a.ID] = a.Label()
	}

	for _, tx := range ledger.Transactions() {
		var obj jsonObjectWriter
		switch tx.Type {
		case Buy, Sell, Dividend:
			label, ok := labels[tx.Asset]
			if !ok {
				return fmt.Errorf("transaction on %s references undeclared asset %d", tx.Date, tx.Asset)
			}
			obj.Append("command", archiveCommand(tx.Type))
			obj.Append("date", tx.Date)
			obj.Append("asset", label)
			obj.Append("quantity", tx.Quantity)
			if tx.Type == Dividend {
				obj.Append("amount", tx.Price)
			} else {
				obj.Append("price", tx.Price)
			}
			obj.Optional("fees", tx.Fees)
		case Fee:
			obj.Append("command", CmdFee)
			obj.Append("date", tx.Date)
			obj.Append("amount", tx.Price)
		default:
			return &UnknownTransactionTypeError{Type: string(tx.Type)}
		}
		obj.Append("currency", tx.Currency)
		obj.Optional("notes", tx.Notes)
		if err := writeLine(w, &obj); err != nil {
			return err
		}
	}
	return nil
}

func archiveCommand(t TxType) string {
	switch t {
	case Buy:
		return CmdBuy
	case Sell:
		return CmdSell
	case Dividend:
		return CmdDividend
	}
	return CmdFee
}

func writeLine(w io.Writer, obj *jsonObjectWriter) error {
	line, err := obj.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("cannot write archive: %w", err)
	}
	return nil
}

// archiveLine has all the fields a line can hold.
type archiveLine struct {
	Command   string          `json:"command"`
	Date      date.Date       `json:"date"`
	Asset     string          `json:"asset"`
	Name      string          `json:"name"`
	AssetType string          `json:"assetType"`
	ISIN      string          `json:"isin"`
	Quantity  Quantity        `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Fees      decimal.Decimal `json:"fees"`
	Currency  string          `json:"currency"`
	Notes     string          `json:"notes"`
}

// DecodeArchive reads a JSONL archive. Every transaction is validated and
// must reference an asset declared on a previous line.
func DecodeArchive(r io.Reader) (*Archive, error) {
	archive := new(Archive)
	ids := make(map[string]int64)
	ledger := NewLedger()

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line archiveLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("format error on line %d: %w", lineno, err)
		}

		if line.Command == CmdDeclare {
			a, err := line.asset()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			if _, exists := ids[a.Label()]; exists {
				return nil, fmt.Errorf("line %d: asset %q is already declared", lineno, a.Label())
			}
			a.ID = int64(len(archive.Assets) + 1)
			archive.Assets = append(archive.Assets, a)
			ids[a.Label()] = a.ID
			continue
		}

		tx := Transaction{Date: line.Date, Fees: line.Fees, Currency: line.Currency, Notes: line.Notes}
		switch line.Command {
		case CmdBuy, CmdSell:
			tx.Type, tx.Quantity, tx.Price = Buy, line.Quantity, line.Price
			if line.Command == CmdSell {
				tx.Type = Sell
			}
		case CmdDividend:
			tx.Type, tx.Quantity, tx.Price = Dividend, line.Quantity, line.Amount
		case CmdFee:
			tx.Type, tx.Price = Fee, line.Amount
		default:
			return nil, fmt.Errorf("line %d: unknown command %q", lineno, line.Command)
		}
		if tx.Type != Fee {
			id, ok := ids[line.Asset]
			if !ok {
				return nil, fmt.Errorf("line %d: asset %q is not declared", lineno, line.Asset)
			}
			tx.Asset = id
		}
		if err := Validate(tx); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		ledger.Append(tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading archive: %w", err)
	}
	archive.Transactions = ledger.transactions
	return archive, nil
}

func (l archiveLine) asset() (Asset, error) {
	t, err := ParseAssetType(l.AssetType)
	if err != nil {
		return Asset{}, err
	}
	a := Asset{Name: l.Name, Type: t, Currency: l.Currency, ISIN: l.ISIN}
	if a.Name == "" {
		a.Name = l.Asset
	}
	if t.Tradeable() {
		a.Ticker = l.Asset
	}
	return a, a.Validate()
}
