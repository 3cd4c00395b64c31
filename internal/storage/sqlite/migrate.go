package sqlite

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`
CREATE TABLE IF NOT EXISTS tickers (
  symbol TEXT PRIMARY KEY,
  keywords_json TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  base_price TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  symbol TEXT NOT NULL REFERENCES tickers(symbol) ON DELETE CASCADE,
  price TEXT NOT NULL,
  ts TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_prices_symbol_ts ON prices(symbol, ts DESC, id DESC);`,
		`
CREATE TABLE IF NOT EXISTS tick_runs (
  run_id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT,
  ok INTEGER,
  error TEXT,
  corpus_size INTEGER NOT NULL DEFAULT 0,
  symbols_total INTEGER NOT NULL DEFAULT 0,
  symbols_failed INTEGER NOT NULL DEFAULT 0
);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
