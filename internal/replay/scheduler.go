package replay

import "log/slog"

// Scheduler holds the paste jobs in flight, at most one per requester, and
// advances them from the host's tick.
//
// Scheduler is owned by one session manager and is not safe for concurrent
// use; all calls happen on the tick goroutine.
type Scheduler struct {
	jobs  map[string]*Job
	order []string
	log   *slog.Logger
}

// NewScheduler creates an empty scheduler. A nil logger uses slog.Default.
func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{jobs: make(map[string]*Job), log: log}
}

// InFlight reports whether requester has an unfinished job.
func (s *Scheduler) InFlight(requester string) bool {
	_, ok := s.jobs[requester]
	return ok
}

// Job returns requester's job in flight.
func (s *Scheduler) Job(requester string) (*Job, bool) {
	j, ok := s.jobs[requester]
	return j, ok
}

// Start registers j under its requester. It fails with an InFlightError
// matching ErrJobInFlight when the requester already has a job; the new job
// is left untouched and has spawned nothing.
func (s *Scheduler) Start(j *Job) error {
	if cur, ok := s.jobs[j.Requester()]; ok {
		return &InFlightError{Requester: j.Requester(), JobID: cur.ID()}
	}
	if j.Done() {
		return nil
	}
	s.jobs[j.Requester()] = j
	s.order = append(s.order, j.Requester())
	s.log.Debug("paste started", "requester", j.Requester(), "job", j.ID())
	return nil
}

// Tick advances every job once, in start order, and returns the jobs that
// finished during this tick. Finished jobs are removed.
func (s *Scheduler) Tick() []*Job {
	var done []*Job
	kept := s.order[:0]
	for _, r := range s.order {
		j := s.jobs[r]
		if j.Advance() {
			delete(s.jobs, r)
			done = append(done, j)
			continue
		}
		kept = append(kept, r)
	}
	s.order = kept
	return done
}

// Disconnect cancels and removes requester's job, deleting whatever it had
// spawned. It reports whether there was a job.
func (s *Scheduler) Disconnect(requester string) bool {
	j, ok := s.jobs[requester]
	if !ok {
		return false
	}
	j.Cancel()
	delete(s.jobs, requester)
	for i, r := range s.order {
		if r == requester {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Info("paste cancelled on disconnect", "requester", requester, "job", j.ID())
	return true
}

// Len returns the number of jobs in flight.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}

// Drain ticks until no job is left and returns the number of ticks taken.
// limit bounds the ticks; zero means no bound.
func (s *Scheduler) Drain(limit int) int {
	ticks := 0
	for s.Len() > 0 && (limit == 0 || ticks < limit) {
		s.Tick()
		ticks++
	}
	return ticks
}
