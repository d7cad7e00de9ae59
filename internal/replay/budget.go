package replay

import (
	"fmt"
	"time"
)

// DefaultBudget is the share of elapsed wall time a job may use.
const DefaultBudget = 0.1

// Budget tracks how much of its lifetime a job has spent working.
//
// Each job has its own Budget. Used only grows, and only by time spent
// inside Advance, so a job that is not ticked falls under budget again as
// elapsed time accumulates.
type Budget struct {
	fraction float64
	created  time.Time
	used     time.Duration
}

// NewBudget creates a budget started at created. fraction must be in (0, 1].
func NewBudget(fraction float64, created time.Time) (*Budget, error) {
	if !(fraction > 0 && fraction <= 1) {
		return nil, fmt.Errorf("budget fraction %v outside (0, 1]", fraction)
	}
	return &Budget{fraction: fraction, created: created}, nil
}

// Within reports whether used time plus pending stays under the budget
// fraction of the time elapsed at now. No elapsed time counts as within
// budget.
func (b *Budget) Within(now time.Time, pending time.Duration) bool {
	elapsed := now.Sub(b.created)
	if elapsed <= 0 {
		return true
	}
	return float64(b.used+pending)/float64(elapsed) < b.fraction
}

// Charge adds d to the used time.
func (b *Budget) Charge(d time.Duration) {
	if d > 0 {
		b.used += d
	}
}

// Used returns the time charged so far.
func (b *Budget) Used() time.Duration {
	return b.used
}

// Fraction returns the budget fraction.
func (b *Budget) Fraction() float64 {
	return b.fraction
}
