package journal

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	as_of DATETIME NOT NULL,
	symbols INTEGER NOT NULL,
	config BLOB,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	total_pnl REAL NOT NULL,
	avg_r_multiple REAL NOT NULL,
	profit_factor REAL NOT NULL,
	best_pnl REAL NOT NULL,
	worst_pnl REAL NOT NULL,
	avg_days_held REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	symbol TEXT NOT NULL,
	entry_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_date DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	shares INTEGER NOT NULL,
	exit_reason TEXT NOT NULL,
	pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	days_held INTEGER NOT NULL,
	r_multiple REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	trade_id TEXT NOT NULL REFERENCES trades(trade_id),
	date DATETIME NOT NULL,
	type TEXT NOT NULL,
	price REAL NOT NULL,
	old_stop REAL NOT NULL,
	new_stop REAL NOT NULL,
	note TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_events_trade ON events(trade_id);
`
