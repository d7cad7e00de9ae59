package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/sandbox"
	"github.com/roach88/dupe/internal/testutil"
)

// TestScheduler_OneJobPerRequester tests the in-flight rule.
func TestScheduler_OneJobPerRequester(t *testing.T) {
	w := sandbox.New()
	sched := NewScheduler(nil)
	clock := testutil.NewStepClock(time.Millisecond)

	first := NewJob(w, crates(3, false), geom.Identity(), WithClock(clock), WithRequester("alice"), WithID("a1"))
	require.NoError(t, sched.Start(first))
	assert.True(t, sched.InFlight("alice"))

	second := NewJob(w, crates(3, false), geom.Identity(), WithClock(clock), WithRequester("alice"), WithID("a2"))
	err := sched.Start(second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJobInFlight))
	assert.True(t, IsInFlight(err))

	var inflight *InFlightError
	require.ErrorAs(t, err, &inflight)
	assert.Equal(t, "a1", inflight.JobID)
	assert.Equal(t, 0, w.Len(), "the rejected job spawned nothing")

	other := NewJob(w, crates(1, false), geom.Identity(), WithClock(clock), WithRequester("bob"))
	require.NoError(t, sched.Start(other))
	assert.Equal(t, 2, sched.Len())

	got, ok := sched.Job("alice")
	require.True(t, ok)
	assert.Same(t, first, got)
}

// TestScheduler_TickRemovesFinishedJobs tests completion bookkeeping.
func TestScheduler_TickRemovesFinishedJobs(t *testing.T) {
	w := sandbox.New()
	sched := NewScheduler(nil)
	clock := testutil.NewStepClock(time.Millisecond)

	long := NewJob(w, crates(4, false), geom.Identity(), WithClock(clock), WithRequester("alice"))
	short := NewJob(w, crates(1, false), geom.Identity(), WithClock(clock), WithRequester("bob"))
	require.NoError(t, sched.Start(long))
	require.NoError(t, sched.Start(short))

	assert.Empty(t, sched.Tick())
	done := sched.Tick()
	require.Len(t, done, 1)
	assert.Same(t, short, done[0])
	assert.False(t, sched.InFlight("bob"))
	assert.True(t, sched.InFlight("alice"))

	ticks := sched.Drain(0)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, sched.Len())
	assert.Equal(t, 5, w.Len())

	// A finished requester may paste again.
	again := NewJob(w, crates(1, false), geom.Identity(), WithClock(clock), WithRequester("alice"))
	assert.NoError(t, sched.Start(again))
}

// TestScheduler_DrainLimit tests the tick bound.
func TestScheduler_DrainLimit(t *testing.T) {
	sched := NewScheduler(nil)
	j := NewJob(sandbox.New(), crates(10, false), geom.Identity(), stepped()...)
	require.NoError(t, sched.Start(j))

	assert.Equal(t, 4, sched.Drain(4))
	assert.Equal(t, 1, sched.Len())
}
