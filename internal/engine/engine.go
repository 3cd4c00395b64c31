// Package engine runs the market: one tick scores every tracked symbol
// against the ingested news corpus and appends the resulting prices, and the
// snapshot side serves display-ready quotes from the persisted history.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/buzzcap/buzzmarket/internal/domain"
	"github.com/buzzcap/buzzmarket/internal/pricing"
	"github.com/buzzcap/buzzmarket/internal/scoring"
)

var engineLog = logrus.WithField("component", "engine")

// TickerStore lists the tracked symbols. Read-only to the engine.
type TickerStore interface {
	ListTickers(ctx context.Context) ([]domain.Ticker, error)
}

// PriceStore is the append-only price history collaborator.
type PriceStore interface {
	LatestPrice(ctx context.Context, symbol string) (domain.PriceObservation, bool, error)
	RecentPrices(ctx context.Context, symbol string, n int) ([]domain.PriceObservation, error)
	InsertPrice(ctx context.Context, symbol string, price decimal.Decimal) (domain.PriceObservation, error)
}

// CorpusFetcher produces one ingestion pass worth of news text.
type CorpusFetcher interface {
	FetchCorpus(ctx context.Context) []string
}

// RunLog records tick invocations for the audit trail. Optional; recording
// failures never fail a tick.
type RunLog interface {
	InsertTickRunStart(ctx context.Context, runID string, startedAt time.Time) error
	FinishTickRun(ctx context.Context, runID string, ok bool, errMsg string, corpusSize, total, failed int) error
}

// Engine wires the collaborators together. Construct with NewEngine; safe
// for concurrent RunTick/Quotes calls.
type Engine struct {
	tickers TickerStore
	prices  PriceStore
	fetcher CorpusFetcher
	model   *pricing.Model
	runs    RunLog // may be nil

	locks symbolLocks
}

func NewEngine(tickers TickerStore, prices PriceStore, fetcher CorpusFetcher, model *pricing.Model, runs RunLog) *Engine {
	return &Engine{
		tickers: tickers,
		prices:  prices,
		fetcher: fetcher,
		model:   model,
		runs:    runs,
	}
}

// RunTick executes one full update cycle. Only a failure to enumerate the
// symbols is fatal; an empty corpus and per-symbol append failures are
// partial outcomes carried in the report.
func (e *Engine) RunTick(ctx context.Context) (*domain.TickReport, error) {
	report := &domain.TickReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	e.auditStart(ctx, report)

	corpus := e.fetcher.FetchCorpus(ctx)
	report.CorpusSize = len(corpus)
	engineLog.Infof("tick %s: corpus has %d fragments", report.RunID, len(corpus))

	tickers, err := e.tickers.ListTickers(ctx)
	if err != nil {
		err = errors.Wrap(err, "list tickers")
		e.auditFinish(ctx, report, err)
		return nil, err
	}

	report.Updates = make([]domain.TickUpdate, len(tickers))
	var wg sync.WaitGroup
	for i := range tickers {
		wg.Add(1)
		go func(i int, t domain.Ticker) {
			defer wg.Done()
			report.Updates[i] = e.updateSymbol(ctx, corpus, t)
		}(i, tickers[i])
	}
	wg.Wait()

	report.FinishedAt = time.Now().UTC()
	e.auditFinish(ctx, report, nil)
	engineLog.Infof("tick %s: %d symbols updated, %d failed",
		report.RunID, len(report.Updates)-report.FailedCount(), report.FailedCount())
	return report, nil
}

// updateSymbol runs the read-score-price-append sequence for one symbol. The
// symbol lock covers read-latest through append so an overlapping tick can
// never price against a stale previous value.
func (e *Engine) updateSymbol(ctx context.Context, corpus []string, t domain.Ticker) domain.TickUpdate {
	unlock := e.locks.lock(t.Symbol)
	defer unlock()

	update := domain.TickUpdate{Symbol: t.Symbol}

	obs, ok, err := e.prices.LatestPrice(ctx, t.Symbol)
	if err != nil {
		update.Err = errors.Wrap(err, "read latest price").Error()
		return update
	}
	prev := t.BasePrice
	if ok {
		prev = obs.Price
	}

	update.OldPrice = prev
	update.Mentions = scoring.Mentions(corpus, t.NormalizedKeywords())
	update.NewPrice = e.model.Next(prev, t.BasePrice, update.Mentions)
	update.Change = update.NewPrice.Sub(prev)
	update.ChangePercent = percentChange(update.Change, prev)

	if _, err := e.prices.InsertPrice(ctx, t.Symbol, update.NewPrice); err != nil {
		update.Err = errors.Wrap(err, "append price").Error()
		engineLog.Errorf("tick: %s append failed: %v", t.Symbol, err)
		return update
	}

	engineLog.Debugf("%s: %s -> %s (%d mentions)", t.Symbol, prev, update.NewPrice, update.Mentions)
	return update
}

// percentChange guards the division: a zero reference price cannot happen
// under the price floor, but a corrupt history row must not panic the tick.
func percentChange(change, reference decimal.Decimal) decimal.Decimal {
	if reference.IsZero() {
		return decimal.Zero
	}
	return change.Div(reference).Mul(decimal.NewFromInt(100)).Round(2)
}

func (e *Engine) auditStart(ctx context.Context, r *domain.TickReport) {
	if e.runs == nil {
		return
	}
	if err := e.runs.InsertTickRunStart(ctx, r.RunID, r.StartedAt); err != nil {
		engineLog.Warnf("tick %s: audit start failed: %v", r.RunID, err)
	}
}

func (e *Engine) auditFinish(ctx context.Context, r *domain.TickReport, fatal error) {
	if e.runs == nil {
		return
	}
	msg := ""
	if fatal != nil {
		msg = fatal.Error()
	}
	err := e.runs.FinishTickRun(ctx, r.RunID, fatal == nil, msg,
		r.CorpusSize, len(r.Updates), r.FailedCount())
	if err != nil {
		engineLog.Warnf("tick %s: audit finish failed: %v", r.RunID, err)
	}
}
