package store

// schema mirrors the tables of the desktop application, plus the market
// data tables. Decimals are stored as TEXT to keep them exact.
const schema = `
CREATE TABLE IF NOT EXISTS assets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT UNIQUE,
    name TEXT NOT NULL,
    asset_type TEXT NOT NULL CHECK(asset_type IN ('Stock', 'ETF', 'Crypto', 'Savings', 'Cash')),
    currency TEXT NOT NULL,
    isin TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id INTEGER REFERENCES assets(id) ON DELETE SET NULL,
    transaction_type TEXT NOT NULL CHECK(transaction_type IN ('Buy', 'Sell', 'Dividend', 'Fee')),
    date TEXT NOT NULL,
    quantity TEXT,
    price TEXT NOT NULL,
    fees TEXT NOT NULL DEFAULT '0',
    currency TEXT NOT NULL,
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_asset_date ON transactions(asset_id, date);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS prices (
    asset_id INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    date TEXT NOT NULL,
    price TEXT NOT NULL,
    currency TEXT NOT NULL,
    PRIMARY KEY (asset_id, date)
);

CREATE TABLE IF NOT EXISTS rates (
    base TEXT NOT NULL,
    quote TEXT NOT NULL,
    date TEXT NOT NULL,
    rate TEXT NOT NULL,
    PRIMARY KEY (base, quote, date)
);
`
