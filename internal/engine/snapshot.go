package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/buzzcap/buzzmarket/internal/domain"
)

// Quotes produces the display-ready summary for every tracked symbol:
// current price (latest observation, else base price) and the change against
// the second-most-recent persisted observation. Fewer than two observations
// means zero change. Read-only; serves whatever the store has committed.
func (e *Engine) Quotes(ctx context.Context) ([]domain.Quote, error) {
	tickers, err := e.tickers.ListTickers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list tickers")
	}

	quotes := make([]domain.Quote, 0, len(tickers))
	for _, t := range tickers {
		recent, err := e.prices.RecentPrices(ctx, t.Symbol, 2)
		if err != nil {
			return nil, errors.Wrapf(err, "recent prices for %s", t.Symbol)
		}

		q := domain.Quote{
			Symbol:        t.Symbol,
			Name:          t.Category,
			Category:      t.Category,
			Keywords:      t.Keywords,
			BasePrice:     t.BasePrice,
			Price:         t.BasePrice,
			Timestamp:     time.Now().UTC(),
			Change:        decimal.Zero,
			ChangePercent: decimal.Zero,
		}
		if len(recent) > 0 {
			q.Price = recent[0].Price
			q.Timestamp = recent[0].Timestamp
		}
		if len(recent) > 1 {
			prev := recent[1].Price
			q.Change = q.Price.Sub(prev)
			q.ChangePercent = percentChange(q.Change, prev)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
