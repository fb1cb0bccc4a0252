package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

// setupTestEnv points the global flags to a fresh database and captures the output.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "pit.db")
	cfg := filepath.Join(dir, "config.toml")

	raw := true
	oldConfig, oldDB, oldOut, oldPlain := configFile, dbPath, out, plain
	configFile, dbPath, plain = &cfg, &db, &raw
	t.Cleanup(func() { configFile, dbPath, out, plain = oldConfig, oldDB, oldOut, oldPlain })
	t.Setenv("PIT_DATABASE_PATH", "")
	t.Setenv("PIT_BASE_CURRENCY", "")
	t.Setenv("PIT_LOG_LEVEL", "error")
	return dir
}

// run executes a subcommand with args and returns its status and output.
func run(t *testing.T, c subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var buf bytes.Buffer
	out = &buf
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: cannot parse %q: %v", c.Name(), args, err)
	}
	status := c.Execute(context.Background(), f)
	return status, buf.String()
}

func mustRun(t *testing.T, c subcommands.Command, args ...string) string {
	t.Helper()
	status, output := run(t, c, args...)
	if status != subcommands.ExitSuccess {
		t.Fatalf("%s %q: status %v, output %q", c.Name(), args, status, output)
	}
	return output
}

func seedPortfolio(t *testing.T) {
	t.Helper()
	mustRun(t, &addAssetCmd{}, "-s", "AAPL", "-n", "Apple Inc.", "-t", "stock", "-c", "usd")
	mustRun(t, &addAssetCmd{}, "-n", "Livret A", "-t", "Savings", "-c", "EUR")
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-d", "2024-01-10", "-q", "10", "-p", "150", "-fees", "1")
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-d", "2024-03-10", "-q", "10", "-p", "170")
}

func TestRecordTransactions(t *testing.T) {
	setupTestEnv(t)

	output := mustRun(t, &addAssetCmd{}, "-s", "AAPL", "-n", "Apple Inc.", "-t", "Stock", "-c", "USD")
	if !strings.Contains(output, "AAPL") {
		t.Errorf("add-asset output = %q, want the ticker", output)
	}

	output = mustRun(t, &buyCmd{}, "-s", "AAPL", "-d", "2024-01-10", "-q", "10", "-p", "150", "-fees", "1")
	if !strings.Contains(output, "-$1,501.00") {
		t.Errorf("buy output = %q, want the net cash flow", output)
	}

	output = mustRun(t, &sellCmd{}, "-s", "1", "-d", "2024-02-10", "-q", "4", "-p", "160", "-fees", "2")
	if !strings.Contains(output, "+$638.00") {
		t.Errorf("sell output = %q, want the net cash flow", output)
	}

	// shares default to the holding on the payment day.
	output = mustRun(t, &dividendCmd{}, "-s", "AAPL", "-d", "2024-02-15", "-a", "0.5")
	if !strings.Contains(output, "+$3.00") {
		t.Errorf("dividend output = %q, want the net cash flow", output)
	}

	output = mustRun(t, &feeCmd{}, "-d", "2024-02-20", "-a", "5", "-m", "custody")
	if !strings.Contains(output, "-$5.00") {
		t.Errorf("fee output = %q, want the net cash flow", output)
	}

	if status, _ := run(t, &sellCmd{}, "-s", "AAPL", "-d", "2024-03-01", "-q", "10", "-p", "160"); status != subcommands.ExitFailure {
		t.Errorf("overselling: status %v, want failure", status)
	}
	if status, _ := run(t, &buyCmd{}, "-s", "MSFT", "-q", "1", "-p", "1"); status != subcommands.ExitFailure {
		t.Errorf("unknown asset: status %v, want failure", status)
	}
	if status, _ := run(t, &buyCmd{}, "-s", "AAPL", "-q", "1", "-p", "1", "-c", "EUR"); status != subcommands.ExitFailure {
		t.Errorf("currency other than the asset's: status %v, want failure", status)
	}
	if status, _ := run(t, &buyCmd{}, "-s", "AAPL", "-q", "x", "-p", "1"); status != subcommands.ExitUsageError {
		t.Errorf("invalid quantity: status %v, want usage error", status)
	}

	output = mustRun(t, &txCmd{}, "-t", "sell")
	if !strings.Contains(output, "Sell") || strings.Contains(output, "Buy") {
		t.Errorf("tx -t sell output = %q", output)
	}
}

func TestReports(t *testing.T) {
	setupTestEnv(t)
	seedPortfolio(t)
	mustRun(t, &priceCmd{}, "-s", "AAPL", "-d", "2024-03-29", "-p", "180")

	output := mustRun(t, &holdingsCmd{}, "-d", "2024-03-31", "-c", "USD")
	for _, want := range []string{"AAPL", "$3,600.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("holdings output does not contain %q:\n%s", want, output)
		}
	}

	if status, _ := run(t, &holdingsCmd{}, "-d", "2024-03-31", "-c", "EUR"); status != subcommands.ExitFailure {
		t.Errorf("missing rate: status %v, want failure", status)
	}
	mustRun(t, &rateCmd{}, "-pair", "EUR/USD", "-d", "2024-01-01", "-r", "1.2")
	mustRun(t, &holdingsCmd{}, "-d", "2024-03-31", "-c", "EUR")

	output = mustRun(t, &dashboardCmd{}, "-d", "2024-03-31", "-p", "1M", "-c", "USD")
	if !strings.Contains(output, "AAPL") {
		t.Errorf("dashboard output does not mention the mover:\n%s", output)
	}

	chart := filepath.Join(t.TempDir(), "alloc.svg")
	mustRun(t, &allocationCmd{}, "-d", "2024-03-31", "-c", "USD", "-chart", chart)
	b, err := os.ReadFile(chart)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("<svg")) {
		t.Errorf("chart is not an svg: %.40q", b)
	}
	if status, _ := run(t, &allocationCmd{}, "-chart", "alloc.gif"); status != subcommands.ExitUsageError {
		t.Errorf("gif chart: status %v, want usage error", status)
	}

	mustRun(t, &moversCmd{}, "-d", "2024-03-31", "-p", "month")
	mustRun(t, &dividendsCmd{}, "-d", "2024-03-31")
}

func TestExportImport(t *testing.T) {
	dir := setupTestEnv(t)
	seedPortfolio(t)
	mustRun(t, &feeCmd{}, "-d", "2024-02-20", "-a", "5", "-c", "EUR")

	archive := filepath.Join(dir, "archive.jsonl")
	mustRun(t, &exportCmd{}, "-o", archive)
	exported, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(exported), "\n"); lines != 5 {
		t.Errorf("exported %d lines, want 5:\n%s", lines, exported)
	}

	// import into a fresh database.
	db := filepath.Join(dir, "other.db")
	dbPath = &db
	output := mustRun(t, &importCmd{}, archive)
	if !strings.Contains(output, "2 new assets and 3 transactions") {
		t.Errorf("import output = %q", output)
	}

	reexported := mustRun(t, &exportCmd{})
	if reexported != string(exported) {
		t.Errorf("export after import differs:\n%s\nwant:\n%s", reexported, exported)
	}

	if status, _ := run(t, &importCmd{}); status != subcommands.ExitUsageError {
		t.Errorf("no file: status %v, want usage error", status)
	}
}

func TestSettings(t *testing.T) {
	setupTestEnv(t)

	if status, _ := run(t, &settingsCmd{}, "base_currency"); status != subcommands.ExitFailure {
		t.Errorf("unset setting: status %v, want failure", status)
	}
	mustRun(t, &settingsCmd{}, "base_currency", "eur")
	if got := mustRun(t, &settingsCmd{}, "base_currency"); got != "EUR\n" {
		t.Errorf("base_currency = %q, want EUR", got)
	}

	// the base currency is the default currency of new assets.
	mustRun(t, &addAssetCmd{}, "-n", "Livret A", "-t", "Savings")
	if got := mustRun(t, &assetsCmd{}); !strings.Contains(got, "EUR") {
		t.Errorf("assets output = %q, want EUR", got)
	}
}

func TestPrintMarkdownStyled(t *testing.T) {
	setupTestEnv(t)
	styled := false
	plain = &styled

	var buf bytes.Buffer
	out = &buf
	printMarkdown("# Holdings\n\nTotal Value: $10.00\n")
	for _, want := range []string{"Holdings", "$10.00"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("printMarkdown() = %q, want %q", buf.String(), want)
		}
	}
}

func TestExtensionEnv(t *testing.T) {
	dir := setupTestEnv(t)

	env := strings.Join(extensionEnv(), "\n")
	for _, want := range []string{
		EnvConfigFile + "=" + filepath.Join(dir, "config.toml"),
		"PIT_DATABASE_PATH=" + filepath.Join(dir, "pit.db"),
		"PIT_BASE_CURRENCY=USD",
	} {
		if !strings.Contains(env, want) {
			t.Errorf("extension environment does not contain %q", want)
		}
	}

	if found, _ := RunExtension("does-not-exist", nil); found {
		t.Error("RunExtension found a missing extension")
	}
}

func TestTopic(t *testing.T) {
	setupTestEnv(t)

	if got := mustRun(t, &topicCmd{}); !strings.Contains(got, "archive:") {
		t.Errorf("topic index = %q, want the list of topics", got)
	}
	if got := mustRun(t, &topicCmd{}, "archive"); !strings.Contains(got, `"command":"declare"`) {
		t.Errorf("topic archive = %q", got)
	}
	if status, _ := run(t, &topicCmd{}, "nope"); status != subcommands.ExitFailure {
		t.Errorf("unknown topic: status %v, want failure", status)
	}
}
