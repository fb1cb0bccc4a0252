// Package store persists assets, transactions, settings and market data in
// a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a ticker or ISIN is already used by another asset.
	ErrDuplicate = errors.New("already exists")
)

// SettingBaseCurrency is the settings key of the reporting currency.
const SettingBaseCurrency = "base_currency"

// Store wraps the database connection.
//
// Writes go through a single connection and each transaction insertion runs
// in a SQL transaction, so readers always see a consistent ledger.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens, and creates if needed, the database at path.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{db: db, path: path, log: log.With().Str("component", "store").Logger()}
	s.log.Debug().Str("path", path).Msg("database opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// withTx runs f inside a SQL transaction, committed only if f succeeds.
func (s *Store) withTx(ctx context.Context, f func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AddAsset validates and inserts an asset, and returns it with its ID.
func (s *Store) AddAsset(ctx context.Context, a pit.Asset) (pit.Asset, error) {
	return addAsset(ctx, s.db, a)
}

func addAsset(ctx context.Context, q querier, a pit.Asset) (pit.Asset, error) {
	if err := a.Validate(); err != nil {
		return pit.Asset{}, err
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO assets (ticker, name, asset_type, currency, isin) VALUES (?, ?, ?, ?, ?)`,
		nullString(a.Ticker), a.Name, string(a.Type), a.Currency, nullString(a.ISIN))
	if isUniqueViolation(err) {
		return pit.Asset{}, fmt.Errorf("asset %q: %w", a.Label(), ErrDuplicate)
	}
	if err != nil {
		return pit.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return pit.Asset{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return a, nil
}

const assetColumns = `id, ticker, name, asset_type, currency, isin`

type scanner interface{ Scan(dest ...any) error }

func scanAsset(row scanner) (pit.Asset, error) {
	var (
		a            pit.Asset
		ticker, isin sql.NullString
		assetType    string
	)
	if err := row.Scan(&a.ID, &ticker, &a.Name, &assetType, &a.Currency, &isin); err != nil {
		return pit.Asset{}, err
	}
	a.Ticker, a.ISIN, a.Type = ticker.String, isin.String, pit.AssetType(assetType)
	return a, nil
}

func getAsset(ctx context.Context, q querier, where string, arg any) (pit.Asset, error) {
	row := q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE `+where, arg)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pit.Asset{}, fmt.Errorf("asset %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return pit.Asset{}, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// AssetByID returns the asset with an ID.
func (s *Store) AssetByID(ctx context.Context, id int64) (pit.Asset, error) {
	return getAsset(ctx, s.db, "id = ?", id)
}

// AssetByTicker returns the asset with a ticker.
func (s *Store) AssetByTicker(ctx context.Context, ticker string) (pit.Asset, error) {
	return getAsset(ctx, s.db, "ticker = ?", ticker)
}

// AssetByLabel returns the asset with a ticker, or the tickerless asset
// with that name.
func (s *Store) AssetByLabel(ctx context.Context, label string) (pit.Asset, error) {
	return assetByLabel(ctx, s.db, label)
}

func assetByLabel(ctx context.Context, q querier, label string) (pit.Asset, error) {
	a, err := getAsset(ctx, q, "ticker = ?", label)
	if errors.Is(err, ErrNotFound) {
		return getAsset(ctx, q, "ticker IS NULL AND name = ?", label)
	}
	return a, err
}

// ListAssets returns all the assets ordered by name.
func (s *Store) ListAssets(ctx context.Context) ([]pit.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []pit.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// AddTransaction validates and inserts a transaction, and returns it with its ID.
//
// The ledger of the asset is aggregated with the new transaction before
// insertion: a transaction that would make the position negative at any
// point is rejected with a *pit.InsufficientHoldingsError, and a currency
// differing from the asset currency with a *pit.ValidationError.
func (s *Store) AddTransaction(ctx context.Context, tx pit.Transaction) (pit.Transaction, error) {
	err := s.withTx(ctx, func(q querier) error {
		var err error
		tx, err = addTransaction(ctx, q, tx)
		return err
	})
	if err != nil {
		return pit.Transaction{}, err
	}
	s.log.Info().Int64("id", tx.ID).Str("type", string(tx.Type)).Stringer("date", tx.Date).Int64("asset", tx.Asset).Msg("transaction recorded")
	return tx, nil
}

func addTransaction(ctx context.Context, q querier, tx pit.Transaction) (pit.Transaction, error) {
	if err := pit.Validate(tx); err != nil {
		return pit.Transaction{}, err
	}
	if tx.Asset != 0 {
		asset, err := getAsset(ctx, q, "id = ?", tx.Asset)
		if err != nil {
			return pit.Transaction{}, err
		}
		// prices are quoted in the asset currency, so is its ledger.
		if tx.Currency != asset.Currency {
			return pit.Transaction{}, &pit.ValidationError{Field: "currency",
				Reason: fmt.Sprintf("%s transaction on %s is in %s, asset %s is quoted in %s", tx.Type, tx.Date, tx.Currency, asset.Label(), asset.Currency)}
		}
		existing, err := listTransactions(ctx, q, "WHERE asset_id = ?", tx.Asset)
		if err != nil {
			return pit.Transaction{}, err
		}
		ledger := pit.NewLedger(existing...)
		ledger.Append(tx)
		if _, err := pit.Aggregate(ledger.ForAsset(tx.Asset), pit.M(0, asset.Currency)); err != nil {
			return pit.Transaction{}, err
		}
	}

	var (
		asset    sql.NullInt64
		quantity decimal.NullDecimal
	)
	if tx.Asset != 0 {
		asset = sql.NullInt64{Int64: tx.Asset, Valid: true}
	}
	if tx.Type != pit.Fee {
		quantity = decimal.NullDecimal{Decimal: tx.Quantity.Decimal(), Valid: true}
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO transactions (asset_id, transaction_type, date, quantity, price, fees, currency, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		asset, string(tx.Type), tx.Date.String(), quantity, tx.Price, tx.Fees, tx.Currency, nullString(tx.Notes))
	if err != nil {
		return pit.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return pit.Transaction{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return tx, nil
}

func listTransactions(ctx context.Context, q querier, where string, args ...any) ([]pit.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, asset_id, transaction_type, date, quantity, price, fees, currency, notes
		 FROM transactions `+where+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []pit.Transaction
	for rows.Next() {
		var (
			tx       pit.Transaction
			asset    sql.NullInt64
			txType   string
			day      string
			quantity decimal.NullDecimal
			notes    sql.NullString
		)
		if err := rows.Scan(&tx.ID, &asset, &txType, &day, &quantity, &tx.Price, &tx.Fees, &tx.Currency, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = date.Parse(day); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		tx.Asset, tx.Type, tx.Notes = asset.Int64, pit.TxType(txType), notes.String
		if quantity.Valid {
			tx.Quantity = pit.Q(quantity.Decimal)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListTransactions returns the transactions of an asset by ascending date,
// then insertion order.
func (s *Store) ListTransactions(ctx context.Context, assetID int64) ([]pit.Transaction, error) {
	return listTransactions(ctx, s.db, "WHERE asset_id = ?", assetID)
}

// AllTransactions returns all the transactions by ascending date, then
// insertion order.
func (s *Store) AllTransactions(ctx context.Context) ([]pit.Transaction, error) {
	return listTransactions(ctx, s.db, "")
}

// Ledger returns all the transactions as a ledger.
func (s *Store) Ledger(ctx context.Context) (*pit.Ledger, error) {
	txs, err := s.AllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return pit.NewLedger(txs...), nil
}

// SetSetting stores a setting, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// Setting returns the value of a setting.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value.String, nil
}

// BaseCurrency returns the stored reporting currency, or fallback when it
// was never set.
func (s *Store) BaseCurrency(ctx context.Context, fallback string) (string, error) {
	cur, err := s.Setting(ctx, SettingBaseCurrency)
	if errors.Is(err, ErrNotFound) || (err == nil && cur == "") {
		return fallback, nil
	}
	return cur, err
}

// SetPrice stores the price of an asset on a day.
func (s *Store) SetPrice(ctx context.Context, assetID int64, on date.Date, price pit.Money) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prices (asset_id, date, price, currency) VALUES (?, ?, ?, ?)
		 ON CONFLICT(asset_id, date) DO UPDATE SET price = excluded.price, currency = excluded.currency`,
		assetID, on.String(), price.Decimal(), price.Currency())
	if err != nil {
		return fmt.Errorf("failed to set price of asset %d: %w", assetID, err)
	}
	return nil
}

// SetRate stores the base/quote exchange rate on a day.
func (s *Store) SetRate(ctx context.Context, base, quote string, on date.Date, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rates (base, quote, date, rate) VALUES (?, ?, ?, ?)
		 ON CONFLICT(base, quote, date) DO UPDATE SET rate = excluded.rate`,
		base, quote, on.String(), rate)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s rate: %w", base, quote, err)
	}
	return nil
}

// MarketData loads all the prices and rates.
func (s *Store) MarketData(ctx context.Context) (*pit.MarketData, error) {
	market := pit.NewMarketData()

	rows, err := s.db.QueryContext(ctx, `SELECT asset_id, date, price, currency FROM prices`)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			asset    int64
			day, cur string
			price    decimal.Decimal
		)
		if err := rows.Scan(&asset, &day, &price, &cur); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		on, err := date.Parse(day)
		if err != nil {
			return nil, fmt.Errorf("price of asset %d: %w", asset, err)
		}
		market.SetPrice(asset, on, pit.M(price, cur))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rates, err := s.db.QueryContext(ctx, `SELECT base, quote, date, rate FROM rates`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	defer rates.Close()
	for rates.Next() {
		var (
			base, quote, day string
			rate             decimal.Decimal
		)
		if err := rates.Scan(&base, &quote, &day, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		on, err := date.Parse(day)
		if err != nil {
			return nil, fmt.Errorf("%s/%s rate: %w", base, quote, err)
		}
		market.SetRate(base, quote, on, rate)
	}
	return market, rates.Err()
}

// Import records the content of an archive in a single SQL transaction.
// Declared assets that already exist, matched by label, are reused.
func (s *Store) Import(ctx context.Context, archive *pit.Archive) (assets, transactions int, err error) {
	err = s.withTx(ctx, func(q querier) error {
		ids := make(map[int64]int64, len(archive.Assets))
		for _, a := range archive.Assets {
			existing, err := assetByLabel(ctx, q, a.Label())
			switch {
			case err == nil:
				ids[a.ID] = existing.ID
				continue
			case !errors.Is(err, ErrNotFound):
				return err
			}
			provisional := a.ID
			a.ID = 0
			if a, err = addAsset(ctx, q, a); err != nil {
				return err
			}
			ids[provisional] = a.ID
			assets++
		}
		for _, tx := range archive.Transactions {
			label := labelOf(archive, tx)
			if tx.Asset != 0 {
				tx.Asset = ids[tx.Asset]
			}
			if _, err := addTransaction(ctx, q, tx); err != nil {
				return fmt.Errorf("%s %s on %s: %w", tx.Type, label, tx.Date, err)
			}
			transactions++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	s.log.Info().Int("assets", assets).Int("transactions", transactions).Msg("archive imported")
	return assets, transactions, nil
}

func labelOf(archive *pit.Archive, tx pit.Transaction) string {
	if a, ok := archive.Asset(tx.Asset); ok {
		return a.Label()
	}
	return "fee"
}
