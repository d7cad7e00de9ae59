// Package replay rebuilds a snapshot into live objects over several ticks.
//
// A Job is an explicit state machine. Each call to Advance processes one
// record, then keeps going only while the job's CPU budget allows:
//
//	SpawningObjects -> SpawningConstraints -> Finalizing -> Done
//
// INVARIANTS:
//   - Records are processed in snapshot list order.
//   - Every object is spawned before the first constraint is created.
//   - Objects are spawned with physics disabled; Finalizing enables it for
//     objects that were not frozen.
//   - A failed record is logged and skipped; the job never aborts.
//   - Cancel deletes every object the job spawned.
//
// Budget: a job may spend at most a fraction of the wall time elapsed
// since it was created. The check is soft. A record that has started is
// always finished, and every Advance processes at least one record, so a
// job with N objects and M constraints is Done after at most N+M+1 calls.
//
// A Scheduler holds the jobs in flight, at most one per requester, and
// drives them from the host's tick.
package replay
