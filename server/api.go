package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/etnz/pit"
	"github.com/etnz/pit/date"
	"github.com/etnz/pit/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiFunc is a function callable through POST /api/{name} with positional
// JSON arguments.
type apiFunc struct {
	min, max int // accepted argument count
	call     func(ctx context.Context, args []json.RawMessage) (any, error)
}

// failure is the envelope of a failed /api call.
type failure struct {
	Error string `json:"error"`
}

// success is the envelope of a successful /api call, data may be null.
type success struct {
	Data any `json:"data"`
}

func (s *Server) apiFuncs() map[string]apiFunc {
	return map[string]apiFunc{
		"add_asset":                  {4, 5, s.addAsset},
		"get_asset_by_id":            {1, 1, s.getAssetByID},
		"get_asset_by_ticker":        {1, 1, s.getAssetByTicker},
		"get_all_assets":             {0, 0, s.getAllAssets},
		"add_transaction":            {7, 8, s.addTransaction},
		"get_transactions_for_asset": {1, 1, s.getTransactionsForAsset},
		"get_all_transactions":       {0, 0, s.getAllTransactions},
		"set_setting":                {2, 2, s.setSetting},
		"get_setting":                {1, 1, s.getSetting},
		"get_holdings":               {0, 2, s.getHoldings},
		"get_dashboard":              {0, 3, s.getDashboard},
	}
}

// handleCall dispatches POST /api/{function}. Errors are reported in the
// envelope with status 200, transport failures aside.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "function")
	fn, ok := s.funcs[name]
	if !ok {
		s.writeJSON(w, http.StatusNotFound, failure{Error: fmt.Sprintf("Backend Error: Unknown function '%s'.", name)})
		return
	}

	var args []json.RawMessage
	// An empty body means no arguments.
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, failure{Error: fmt.Sprintf("Backend Error: Invalid arguments format for %s. Details: %v", name, err)})
		return
	}
	if len(args) < fn.min || len(args) > fn.max {
		s.writeJSON(w, http.StatusBadRequest, failure{Error: fmt.Sprintf("Backend Error calling %s: Invalid arguments provided. Details: expected %s, got %d", name, arity(fn), len(args))})
		return
	}

	data, err := fn.call(r.Context(), args)
	if err != nil {
		s.log.Warn().Err(err).Str("function", name).Msg("API call failed")
		s.writeJSON(w, http.StatusOK, failure{Error: fmt.Sprintf("Backend Error executing %s: %v", name, err)})
		return
	}
	s.writeJSON(w, http.StatusOK, success{Data: data})
}

func arity(fn apiFunc) string {
	if fn.min == fn.max {
		return fmt.Sprintf("%d arguments", fn.min)
	}
	return fmt.Sprintf("%d to %d arguments", fn.min, fn.max)
}

// argument decodes args[i] into v. Absent trailing arguments leave v untouched.
func argument(args []json.RawMessage, i int, name string, v any) error {
	if i >= len(args) {
		return nil
	}
	if err := json.Unmarshal(args[i], v); err != nil {
		return fmt.Errorf("argument %s: %w", name, err)
	}
	return nil
}

// nullable turns a not found error into a null result.
func nullable(v any, err error) (any, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) addAsset(ctx context.Context, args []json.RawMessage) (any, error) {
	var (
		ticker, isin         *string
		name, kind, currency string
	)
	for i, a := range []struct {
		name string
		v    any
	}{{"ticker", &ticker}, {"name", &name}, {"asset_type", &kind}, {"currency", &currency}, {"isin", &isin}} {
		if err := argument(args, i, a.name, a.v); err != nil {
			return nil, err
		}
	}
	t, err := pit.ParseAssetType(kind)
	if err != nil {
		return nil, err
	}
	asset := pit.Asset{Name: name, Type: t, Currency: currency}
	if ticker != nil {
		asset.Ticker = *ticker
	}
	if isin != nil {
		asset.ISIN = *isin
	}
	asset, err = s.store.AddAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	return asset.ID, nil
}

func (s *Server) getAssetByID(ctx context.Context, args []json.RawMessage) (any, error) {
	var id int64
	if err := argument(args, 0, "asset_id", &id); err != nil {
		return nil, err
	}
	return nullable(s.store.AssetByID(ctx, id))
}

func (s *Server) getAssetByTicker(ctx context.Context, args []json.RawMessage) (any, error) {
	var ticker string
	if err := argument(args, 0, "ticker", &ticker); err != nil {
		return nil, err
	}
	return nullable(s.store.AssetByTicker(ctx, ticker))
}

func (s *Server) getAllAssets(ctx context.Context, _ []json.RawMessage) (any, error) {
	assets, err := s.store.ListAssets(ctx)
	if assets == nil {
		assets = []pit.Asset{}
	}
	return assets, err
}

func (s *Server) addTransaction(ctx context.Context, args []json.RawMessage) (any, error) {
	var (
		assetID     *int64
		kind        string
		day         date.Date
		quantity    *pit.Quantity
		price, fees decimal.Decimal
		currency    string
		notes       *string
	)
	for i, a := range []struct {
		name string
		v    any
	}{
		{"asset_id", &assetID}, {"transaction_type", &kind}, {"date", &day}, {"quantity", &quantity},
		{"price", &price}, {"fees", &fees}, {"currency", &currency}, {"notes", &notes},
	} {
		if err := argument(args, i, a.name, a.v); err != nil {
			return nil, err
		}
	}
	t, err := pit.ParseTxType(kind)
	if err != nil {
		return nil, err
	}
	tx := pit.Transaction{Type: t, Date: day, Price: price, Fees: fees, Currency: currency}
	if assetID != nil {
		tx.Asset = *assetID
	}
	if quantity != nil {
		tx.Quantity = *quantity
	}
	if notes != nil {
		tx.Notes = *notes
	}
	tx, err = s.store.AddTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return tx.ID, nil
}

func (s *Server) getTransactionsForAsset(ctx context.Context, args []json.RawMessage) (any, error) {
	var id int64
	if err := argument(args, 0, "asset_id", &id); err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, id)
	if txs == nil {
		txs = []pit.Transaction{}
	}
	return txs, err
}

func (s *Server) getAllTransactions(ctx context.Context, _ []json.RawMessage) (any, error) {
	txs, err := s.store.AllTransactions(ctx)
	if txs == nil {
		txs = []pit.Transaction{}
	}
	return txs, err
}

func (s *Server) setSetting(ctx context.Context, args []json.RawMessage) (any, error) {
	var key, value string
	if err := argument(args, 0, "key", &key); err != nil {
		return nil, err
	}
	if err := argument(args, 1, "value", &value); err != nil {
		return nil, err
	}
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Server) getSetting(ctx context.Context, args []json.RawMessage) (any, error) {
	var key string
	if err := argument(args, 0, "key", &key); err != nil {
		return nil, err
	}
	return nullable(s.store.Setting(ctx, key))
}

// getHoldings takes an optional date (default today) and an optional
// reporting currency (default the base currency).
func (s *Server) getHoldings(ctx context.Context, args []json.RawMessage) (any, error) {
	on, currency := s.cfg.Today(), ""
	if err := argument(args, 0, "date", &on); err != nil {
		return nil, err
	}
	if err := argument(args, 1, "currency", &currency); err != nil {
		return nil, err
	}
	return s.holdings(ctx, on, currency)
}

// getDashboard takes an optional period name (default month), date and
// currency.
func (s *Server) getDashboard(ctx context.Context, args []json.RawMessage) (any, error) {
	var name string
	on, currency := s.cfg.Today(), ""
	if err := argument(args, 0, "period", &name); err != nil {
		return nil, err
	}
	if err := argument(args, 1, "date", &on); err != nil {
		return nil, err
	}
	if err := argument(args, 2, "currency", &currency); err != nil {
		return nil, err
	}
	period := date.Monthly
	if name != "" {
		p, err := date.ParsePeriod(name)
		if err != nil {
			return nil, err
		}
		period = p
	}
	v, err := s.load(ctx, currency)
	if err != nil {
		return nil, err
	}
	return pit.NewDashboard(v.assets, v.ledger, v.market, on, period, v.currency)
}

// view is everything a report needs, read from the store.
type view struct {
	assets   []pit.Asset
	ledger   *pit.Ledger
	market   *pit.MarketData
	currency string
}

// load reads a consistent view. An empty currency means the base currency.
func (s *Server) load(ctx context.Context, currency string) (*view, error) {
	var (
		v   view
		err error
	)
	if v.assets, err = s.store.ListAssets(ctx); err != nil {
		return nil, err
	}
	if v.ledger, err = s.store.Ledger(ctx); err != nil {
		return nil, err
	}
	if v.market, err = s.store.MarketData(ctx); err != nil {
		return nil, err
	}
	v.currency = currency
	if v.currency == "" {
		if v.currency, err = s.store.BaseCurrency(ctx, s.cfg.BaseCurrency); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func (s *Server) holdings(ctx context.Context, on date.Date, currency string) (*pit.HoldingsReport, error) {
	v, err := s.load(ctx, currency)
	if err != nil {
		return nil, err
	}
	return pit.NewHoldingsReport(v.assets, v.ledger, v.market, on, v.currency)
}
