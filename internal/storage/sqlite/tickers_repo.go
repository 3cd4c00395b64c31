package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/buzzcap/buzzmarket/internal/domain"
)

// ListTickers returns every tracked symbol. The engine treats the result as
// read-only.
func (s *Store) ListTickers(ctx context.Context) ([]domain.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT symbol, keywords_json, category, base_price
FROM tickers
ORDER BY symbol
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ticker
	for rows.Next() {
		var (
			t            domain.Ticker
			keywordsJSON string
			basePrice    string
		)
		if err := rows.Scan(&t.Symbol, &keywordsJSON, &t.Category, &basePrice); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &t.Keywords); err != nil {
			return nil, fmt.Errorf("ticker %s keywords: %w", t.Symbol, err)
		}
		t.BasePrice, err = decimal.NewFromString(basePrice)
		if err != nil {
			return nil, fmt.Errorf("ticker %s base price: %w", t.Symbol, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertTicker inserts or replaces a ticker definition. Used by the seeding
// tool only; the engine never writes tickers.
func (s *Store) UpsertTicker(ctx context.Context, t domain.Ticker) error {
	if !t.IsValid() {
		return fmt.Errorf("invalid ticker %q: needs symbol, keywords, positive base price", t.Symbol)
	}
	keywordsJSON, err := json.Marshal(t.NormalizedKeywords())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tickers (symbol, keywords_json, category, base_price)
VALUES (?,?,?,?)
ON CONFLICT(symbol) DO UPDATE SET
  keywords_json=excluded.keywords_json,
  category=excluded.category,
  base_price=excluded.base_price
`, t.Symbol, string(keywordsJSON), t.Category, t.BasePrice.String())
	if err != nil {
		return fmt.Errorf("upsert ticker %s: %w", t.Symbol, err)
	}
	return nil
}
