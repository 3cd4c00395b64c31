// Package pricing implements the bounded stochastic price update rule:
// buzz pushes the price up, noise adds volatility, and mean reversion pulls
// it back toward the symbol's base price.
package pricing

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// impactStep is the price impact of a single mention.
	impactStep = decimal.NewFromFloat(0.5)
	// reversionFactor scales the pull back toward base price.
	reversionFactor = decimal.NewFromFloat(0.05)
	// priceFloor is a hard economic invariant: no asset trades below 1.00.
	priceFloor = decimal.NewFromInt(1)
)

// noiseSpan is the full width of the uniform noise term, i.e. a single draw
// over [-0.1, 0.1].
const noiseSpan = 0.2

// Model computes next prices. The random source is injected so tests can
// pin the noise term; Next is safe for concurrent use.
type Model struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewModel returns a model using the given random source. A nil source gets
// a time-seeded one.
func NewModel(rng *rand.Rand) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Model{rng: rng}
}

// Next computes the new price from the previous price, the base (reference)
// price, and the mention count. Terms are applied in a fixed order, then the
// result is clamped to the floor and rounded to 2 decimals. Rounding is
// half-away-from-zero (half-up, since prices are positive).
func (m *Model) Next(prev, base decimal.Decimal, mentions int) decimal.Decimal {
	impact := impactStep.Mul(decimal.NewFromInt(int64(mentions)))
	noise := decimal.NewFromFloat(m.draw())
	raw := prev.Add(impact).Add(noise).Add(reversion(prev, base))
	if raw.LessThan(priceFloor) {
		raw = priceFloor
	}
	return raw.Round(2)
}

// draw returns one uniform sample over [-noiseSpan/2, noiseSpan/2).
func (m *Model) draw() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (m.rng.Float64() - 0.5) * noiseSpan
}

// reversion is the mean-reversion term: proportional to the deviation from
// base, negative when the price is above base and positive when below.
func reversion(prev, base decimal.Decimal) decimal.Decimal {
	return base.Sub(prev).Mul(reversionFactor)
}
