package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a tracked buzzword asset. Keywords drive scoring; BasePrice is
// the long-run reference the price reverts toward. Tickers are seeded by an
// external tool and read-only to the engine.
type Ticker struct {
	Symbol    string          `json:"symbol"`
	Keywords  []string        `json:"keywords"`
	Category  string          `json:"category"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// IsValid reports whether the ticker can be priced at all.
func (t *Ticker) IsValid() bool {
	return t.Symbol != "" && len(t.Keywords) > 0 && t.BasePrice.IsPositive()
}

// NormalizedKeywords returns the keyword set lower-cased with empty entries
// dropped. Scoring is case-insensitive; normalization happens once here.
func (t *Ticker) NormalizedKeywords() []string {
	out := make([]string, 0, len(t.Keywords))
	for _, k := range t.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// PriceObservation is one append-only price history entry. The timestamp is
// assigned by the store at insert time, never by the caller.
type PriceObservation struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// TickUpdate is the per-symbol outcome of one tick. Err is set when the new
// observation could not be appended; the rest of the batch still runs.
type TickUpdate struct {
	Symbol        string          `json:"symbol"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	Mentions      int             `json:"mentions"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Err           string          `json:"error,omitempty"`
}

// Failed reports whether this symbol's update was lost.
func (u *TickUpdate) Failed() bool { return u.Err != "" }

// TickReport is the whole-batch result of one tick run.
type TickReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	CorpusSize int          `json:"corpus_size"`
	Updates    []TickUpdate `json:"updates"`
}

// FailedCount returns how many symbols lost their update this tick.
func (r *TickReport) FailedCount() int {
	n := 0
	for i := range r.Updates {
		if r.Updates[i].Failed() {
			n++
		}
	}
	return n
}

// Quote is the query-boundary record for one symbol: current price plus the
// change against the second-most-recent persisted observation.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Category      string          `json:"category"`
	Keywords      []string        `json:"keywords"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Timestamp     time.Time       `json:"timestamp"`
}
