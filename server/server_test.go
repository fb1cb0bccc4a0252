package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/pit/date"
	"github.com/etnz/pit/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "pit.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := New(Config{
		BaseCurrency: "USD",
		Store:        st,
		Log:          zerolog.Nop(),
		Today:        func() date.Date { return date.New(2024, 6, 30) },
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// call posts args to /api/name and decodes the envelope.
func call(t *testing.T, srv *httptest.Server, name string, args ...any) (data json.RawMessage, errMsg string) {
	t.Helper()
	body, err := json.Marshal(args)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/"+name, "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data, env.Error
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	resp, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"healthy"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRequestIDIsKept(t *testing.T) {
	srv := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc123", resp.Header.Get("X-Request-Id"))
}

func TestUnknownFunction(t *testing.T) {
	srv := setupTestServer(t)

	data, msg := call(t, srv, "drop_tables")
	assert.Nil(t, []byte(data))
	assert.Equal(t, "Backend Error: Unknown function 'drop_tables'.", msg)
}

func TestInvalidArguments(t *testing.T) {
	srv := setupTestServer(t)

	_, msg := call(t, srv, "get_asset_by_id")
	assert.Contains(t, msg, "Invalid arguments provided")

	_, msg = call(t, srv, "get_all_assets", 1)
	assert.Contains(t, msg, "Invalid arguments provided")

	resp, err := http.Post(srv.URL+"/api/get_all_assets", "application/json", strings.NewReader(`{"not":"a list"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssetsAndTransactions(t *testing.T) {
	srv := setupTestServer(t)

	data, msg := call(t, srv, "add_asset", "AAPL", "Apple Inc.", "Stock", "USD", "US0378331005")
	require.Empty(t, msg)
	var id int64
	require.NoError(t, json.Unmarshal(data, &id))
	assert.NotZero(t, id)

	_, msg = call(t, srv, "add_asset", nil, "Livret A", "Savings", "EUR")
	require.Empty(t, msg)

	data, msg = call(t, srv, "get_asset_by_ticker", "AAPL")
	require.Empty(t, msg)
	assert.JSONEq(t, `{"id":1,"ticker":"AAPL","name":"Apple Inc.","assetType":"Stock","currency":"USD","isin":"US0378331005"}`, string(data))

	data, msg = call(t, srv, "get_asset_by_ticker", "MSFT")
	require.Empty(t, msg)
	assert.Equal(t, "null", string(data))

	data, msg = call(t, srv, "get_all_assets")
	require.Empty(t, msg)
	var assets []map[string]any
	require.NoError(t, json.Unmarshal(data, &assets))
	assert.Len(t, assets, 2)

	_, msg = call(t, srv, "add_transaction", id, "Buy", "2024-01-10", 10, 150, 1, "USD")
	require.Empty(t, msg)
	_, msg = call(t, srv, "add_transaction", nil, "Fee", "2024-02-01", nil, 5, 0, "USD", "custody")
	require.Empty(t, msg)

	_, msg = call(t, srv, "add_transaction", id, "Sell", "2024-03-01", 20, 160, 0, "USD")
	assert.Contains(t, msg, "Backend Error executing add_transaction")

	_, msg = call(t, srv, "add_transaction", id, "Transfer", "2024-03-01", 1, 160, 0, "USD")
	assert.Contains(t, msg, "Transfer")

	data, msg = call(t, srv, "get_transactions_for_asset", id)
	require.Empty(t, msg)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "Buy", txs[0]["type"])

	data, msg = call(t, srv, "get_all_transactions")
	require.Empty(t, msg)
	require.NoError(t, json.Unmarshal(data, &txs))
	assert.Len(t, txs, 2)
}

func TestSettings(t *testing.T) {
	srv := setupTestServer(t)

	data, msg := call(t, srv, "get_setting", "base_currency")
	require.Empty(t, msg)
	assert.Equal(t, "null", string(data))

	data, msg = call(t, srv, "set_setting", "base_currency", "EUR")
	require.Empty(t, msg)
	assert.Equal(t, "true", string(data))

	data, msg = call(t, srv, "get_setting", "base_currency")
	require.Empty(t, msg)
	assert.Equal(t, `"EUR"`, string(data))
}

func seed(t *testing.T, srv *httptest.Server) {
	t.Helper()
	_, msg := call(t, srv, "add_asset", "AAPL", "Apple Inc.", "Stock", "USD")
	require.Empty(t, msg)
	_, msg = call(t, srv, "add_transaction", 1, "Buy", "2024-01-10", 10, 150, 0, "USD")
	require.Empty(t, msg)
	_, msg = call(t, srv, "add_transaction", 1, "Buy", "2024-06-10", 10, 170, 0, "USD")
	require.Empty(t, msg)
}

func TestHoldings(t *testing.T) {
	srv := setupTestServer(t)
	seed(t, srv)

	data, msg := call(t, srv, "get_holdings")
	require.Empty(t, msg)
	var report struct {
		Currency   string
		TotalValue struct {
			Amount decimal.Decimal `json:"amount"`
		}
		TotalCostBasis struct {
			Amount decimal.Decimal `json:"amount"`
		}
		Holdings []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "USD", report.Currency)
	assert.Len(t, report.Holdings, 1)
	// priced at the last trade price.
	assert.True(t, decimal.NewFromInt(3400).Equal(report.TotalValue.Amount), report.TotalValue.Amount.String())
	assert.True(t, decimal.NewFromInt(3200).Equal(report.TotalCostBasis.Amount), report.TotalCostBasis.Amount.String())

	data, msg = call(t, srv, "get_holdings", "2024-02-01")
	require.Empty(t, msg)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.True(t, decimal.NewFromInt(1500).Equal(report.TotalValue.Amount), report.TotalValue.Amount.String())

	_, msg = call(t, srv, "get_holdings", "2024-02-01", "EUR")
	assert.Contains(t, msg, "EUR")
}

func TestDashboard(t *testing.T) {
	srv := setupTestServer(t)
	seed(t, srv)

	data, msg := call(t, srv, "get_dashboard", "month")
	require.Empty(t, msg)
	var d struct {
		Value struct {
			Amount decimal.Decimal `json:"amount"`
		}
	}
	require.NoError(t, json.Unmarshal(data, &d))
	assert.True(t, decimal.NewFromInt(3400).Equal(d.Value.Amount), d.Value.Amount.String())

	_, msg = call(t, srv, "get_dashboard", "decade")
	assert.Contains(t, msg, "decade")
}

func TestHoldingsReportPage(t *testing.T) {
	srv := setupTestServer(t)
	seed(t, srv)

	resp, body := get(t, srv, "/report/holdings?date=2024-06-30")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "AAPL")

	resp, _ = get(t, srv, "/report/holdings?date=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAllocationChart(t *testing.T) {
	srv := setupTestServer(t)

	resp, _ := get(t, srv, "/chart/allocation.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	seed(t, srv)
	resp, body := get(t, srv, "/chart/allocation.svg")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<svg")
}
