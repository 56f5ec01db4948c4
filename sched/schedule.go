// Package sched implements the single-dispatcher timing engine: a
// due-time indexed heap and an idle map of Schedules, driven by one
// dispatcher goroutine that sleeps until the earliest deadline, runs or
// drops due work according to pool admission, and re-queues or retires
// schedules.
package sched

import (
	"sync/atomic"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/pool"
)

// WorkFunc is a schedule's work function. arg is the opaque argument
// supplied at Create time.
type WorkFunc func(arg any)

// Callback is invoked around dispatch: RunCallback just before a dispatch
// attempt, AbortCallback when an attempt is dropped by the pool.
type Callback func(arg any)

// Schedule is a standing intent to invoke a work function at one or more
// future deadlines. Every field besides the atomic dropped counter and
// the immutable id is only safe to read or mutate under the owning
// Scheduler's mutex.
type Schedule struct {
	id uint64

	fn     WorkFunc
	arg    any
	freeFn func(arg any)

	runCB   Callback
	abortCB Callback

	// period is the repetition interval in nanoseconds.
	period int64

	// start is the next absolute deadline in nanoseconds, monotonic
	// clock domain. It doubles as the due-time map key once scheduled.
	start int64

	// repeat is the remaining execution count; 0 means infinite.
	repeat uint64

	pool     pool.ThreadPool
	priority int
	affinity *int

	// dropped counts dispatch attempts the pool refused. Read without
	// the scheduler mutex; only ever incremented by the dispatcher.
	dropped atomic.Uint64

	// scheduled mirrors due-heap membership.
	scheduled bool

	// heapIndex is this schedule's slot in the due-time heap, or -1 if
	// it is not currently a heap member.
	heapIndex int
}

// ID returns the schedule's process-lifetime-unique identifier.
func (s *Schedule) ID() uint64 {
	return s.id
}

// Dropped returns the number of dispatch attempts the pool has refused
// for this schedule.
func (s *Schedule) Dropped() uint64 {
	return s.dropped.Load()
}

// Period returns the schedule's repetition interval.
func (s *Schedule) Period() time.Duration {
	return time.Duration(s.period)
}
