package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buzzcap/buzzmarket/internal/domain"
)

// LatestPrice returns the most recent observation for symbol, with ok=false
// when no observation exists yet.
func (s *Store) LatestPrice(ctx context.Context, symbol string) (domain.PriceObservation, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT symbol, price, ts
FROM prices
WHERE symbol=?
ORDER BY ts DESC, id DESC
LIMIT 1
`, symbol)

	obs, err := scanObservation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PriceObservation{}, false, nil
	}
	if err != nil {
		return domain.PriceObservation{}, false, err
	}
	return obs, true, nil
}

// RecentPrices returns up to n observations for symbol, newest first.
func (s *Store) RecentPrices(ctx context.Context, symbol string, n int) ([]domain.PriceObservation, error) {
	if n <= 0 || n > 2000 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT symbol, price, ts
FROM prices
WHERE symbol=?
ORDER BY ts DESC, id DESC
LIMIT ?
`, symbol, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		obs, err := scanObservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// InsertPrice appends a new observation. The timestamp is assigned here, so
// per-symbol history stays time-ordered regardless of the caller; equal
// timestamps fall back to insertion order via the rowid.
func (s *Store) InsertPrice(ctx context.Context, symbol string, price decimal.Decimal) (domain.PriceObservation, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO prices (symbol, price, ts)
VALUES (?,?,?)
`, symbol, price.String(), now.Format(time.RFC3339Nano))
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("insert price %s: %w", symbol, err)
	}
	return domain.PriceObservation{Symbol: symbol, Price: price, Timestamp: now}, nil
}

func scanObservation(scan func(dest ...any) error) (domain.PriceObservation, error) {
	var (
		obs      domain.PriceObservation
		priceStr string
		tsStr    string
	)
	if err := scan(&obs.Symbol, &priceStr, &tsStr); err != nil {
		return domain.PriceObservation{}, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("price %s: %w", obs.Symbol, err)
	}
	obs.Price = price
	obs.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
	return obs, nil
}
