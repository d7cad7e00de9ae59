package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs returns predetermined ids, then numbered fallbacks.
//
// Jobs and stored snapshots take their ids from a generator; tests plug
// this one in to get stable ids in logs and golden output.
//
// Thread-safety: FixedIDs is safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

// NewFixedIDs creates a generator that returns ids in order. Once they are
// exhausted it returns "id-<n>" counting from the first call.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next id.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("id-%d", g.n)
}
