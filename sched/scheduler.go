package sched

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/clock"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
	"github.com/eaton-coreymutter/iotech-c-utils/pool"
	"github.com/eaton-coreymutter/iotech-c-utils/threadutil"
)

// State is the scheduler's lifecycle state, per spec.md §3.
type State int32

const (
	StateInitial State = iota
	StateRunning
	StateStopped
	StateDeleted
)

func (st State) String() string {
	switch st {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// DefaultWake bounds the dispatcher's wait when no schedule is pending,
// per spec.md §4.3, so it wakes periodically even if a signal is missed.
const DefaultWake = 24 * time.Hour

// nextScheduleID hands out schedule ids shared by every Scheduler in the
// process, so an id is unique for the process lifetime.
var nextScheduleID atomic.Uint64

// Scheduler owns the due-time heap and idle map described in spec.md §3
// and runs the single dispatcher goroutine of spec.md §4.3.
type Scheduler struct {
	mu sync.Mutex

	state State

	due  *dueHeap
	idle map[uint64]*Schedule

	// stateCh is closed and replaced every time state changes, waking
	// anyone blocked on the "state wait" suspension point.
	stateCh chan struct{}

	// wakeCh is closed and replaced every time a mutator places a
	// schedule at the heap front while RUNNING, waking the dispatcher's
	// timed wait early.
	wakeCh chan struct{}

	// parkedCh, when non-nil, is closed by the dispatcher the next time
	// it re-enters the state wait with a non-running state. Stop uses
	// it to block until the dispatcher has actually parked, replacing
	// the original's grace sleeps per spec.md §9.
	parkedCh chan struct{}

	// doneCh is closed once the dispatcher goroutine has drained both
	// maps and exited, after observing StateDeleted.
	doneCh chan struct{}

	log      logging.Logger
	metrics  Metrics
	priority *int
	affinity *int
}

// New allocates a scheduler in StateInitial and launches its dispatcher
// goroutine, matching spec.md §4.4's alloc. affinity, if non-nil, is
// applied to the dedicated goroutines spawned for pool-less schedules,
// each of which also applies its own Create priority. priority is stored
// on the Scheduler but is not applied to any thread. Either may be nil.
// log may be nil, in which case a no-op logger is used; no Metrics hook
// is installed until SetMetrics is called.
func New(priority, affinity *int, log logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	s := &Scheduler{
		state:    StateInitial,
		due:      newDueHeap(),
		idle:     make(map[uint64]*Schedule),
		stateCh:  make(chan struct{}),
		wakeCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
		priority: priority,
		affinity: affinity,
	}
	go s.run()
	return s
}

// SetMetrics installs an optional dispatch-metrics hook.
func (s *Scheduler) SetMetrics(m Metrics) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

func (s *Scheduler) broadcastStateLocked() {
	close(s.stateCh)
	s.stateCh = make(chan struct{})
}

func (s *Scheduler) signalWakeLocked() {
	close(s.wakeCh)
	s.wakeCh = make(chan struct{})
}

// Start transitions the scheduler to RUNNING.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDeleted {
		return
	}
	s.state = StateRunning
	s.broadcastStateLocked()
}

// Stop transitions the scheduler to STOPPED and blocks until the
// dispatcher has parked (reached its state wait), giving the original's
// two grace sleeps an explicit acknowledgement instead, per spec.md §9.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	parked := make(chan struct{})
	s.parkedCh = parked
	s.state = StateStopped
	s.broadcastStateLocked()
	s.mu.Unlock()

	<-parked
}

// Free stops the scheduler (if running), deletes it, and blocks until
// the dispatcher goroutine has drained both maps and exited, freeing
// every remaining schedule's arg via its free_fn exactly once.
func (s *Scheduler) Free() {
	s.mu.Lock()
	if s.state == StateDeleted {
		s.mu.Unlock()
		<-s.doneCh
		return
	}
	s.state = StateDeleted
	s.broadcastStateLocked()
	s.mu.Unlock()

	<-s.doneCh
}

// Create constructs a schedule and places it in the idle map. The first
// deadline is clock.MonotonicNextNs() + startOffset. repeat = 0 means
// infinite; any other value is the number of remaining executions.
// period must be > 0 unless repeat == 1. If p is nil, each dispatch
// spawns a dedicated goroutine instead of submitting to a pool.
func (s *Scheduler) Create(fn WorkFunc, freeFn func(arg any), arg any, period time.Duration, startOffset time.Duration, repeat uint64, p pool.ThreadPool, priority int) *Schedule {
	sch := &Schedule{
		id:        nextScheduleID.Add(1),
		fn:        fn,
		arg:       arg,
		freeFn:    freeFn,
		period:    int64(period),
		start:     clock.MonotonicNextNs() + int64(startOffset),
		repeat:    repeat,
		pool:      p,
		priority:  priority,
		affinity:  s.affinity,
		heapIndex: -1,
	}

	s.mu.Lock()
	s.idle[sch.id] = sch
	s.mu.Unlock()

	return sch
}

// AddRunCallback assigns the callback invoked just before each dispatch
// attempt.
func (s *Scheduler) AddRunCallback(sch *Schedule, cb Callback) {
	s.mu.Lock()
	sch.runCB = cb
	s.mu.Unlock()
}

// AddAbortCallback assigns the callback invoked whenever a dispatch is
// dropped by the pool.
func (s *Scheduler) AddAbortCallback(sch *Schedule, cb Callback) {
	s.mu.Lock()
	sch.abortCB = cb
	s.mu.Unlock()
}

// Add moves sch from the idle map into the due-time heap, if it isn't
// already scheduled. If this places sch at the front of the heap while
// RUNNING, the dispatcher is signalled to recompute its wait.
//
// If sch.start already lies in the past, it fires at the dispatcher's
// next wake rather than being deferred to the next period boundary —
// this is spec.md §9's first open question, resolved by preserving the
// original's behaviour.
func (s *Scheduler) Add(sch *Schedule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sch.scheduled {
		return false
	}
	delete(s.idle, sch.id)
	isFront := s.due.add(sch)
	sch.scheduled = true
	if isFront && s.state == StateRunning {
		s.signalWakeLocked()
	}
	return true
}

// Remove moves sch from the due-time heap into the idle map, if it is
// currently scheduled.
func (s *Scheduler) Remove(sch *Schedule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !sch.scheduled {
		return false
	}
	s.due.remove(sch)
	sch.scheduled = false
	s.idle[sch.id] = sch
	return true
}

// Reset recomputes sch's next deadline as now + period. If sch is
// currently scheduled, the due-time heap entry is updated in place
// (signalling the dispatcher if it becomes the new front); otherwise
// its start is simply updated for the next Add.
func (s *Scheduler) Reset(sch *Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := clock.MonotonicNextNs() + sch.period
	if sch.scheduled {
		isFront := s.due.update(sch, next)
		if isFront && s.state == StateRunning {
			s.signalWakeLocked()
		}
		return
	}
	sch.start = next
}

// Delete removes sch from whichever map holds it and releases its arg
// via free_fn, if one was supplied.
func (s *Scheduler) Delete(sch *Schedule) {
	s.mu.Lock()
	if sch.scheduled {
		s.due.remove(sch)
		sch.scheduled = false
	} else {
		delete(s.idle, sch.id)
	}
	s.mu.Unlock()

	if sch.freeFn != nil {
		sch.freeFn(sch.arg)
	}
}

// Dropped reads sch's atomic drop counter.
func (s *Scheduler) Dropped(sch *Schedule) uint64 {
	return sch.Dropped()
}

// waitRunningOrDeleted blocks until the scheduler state is RUNNING or
// DELETED, per spec.md §4.3's "state wait" suspension point. Every time
// it observes a non-terminal, non-running state it acknowledges a
// pending Stop() by closing parkedCh, if one is waiting.
func (s *Scheduler) waitRunningOrDeleted() State {
	for {
		s.mu.Lock()
		st := s.state
		if st == StateRunning || st == StateDeleted {
			s.mu.Unlock()
			return st
		}
		if s.parkedCh != nil {
			close(s.parkedCh)
			s.parkedCh = nil
		}
		ch := s.stateCh
		s.mu.Unlock()
		<-ch
	}
}

// run is the dispatcher goroutine body: spec.md §4.3's loop.
func (s *Scheduler) run() {
	timer := time.NewTimer(DefaultWake)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		st := s.waitRunningOrDeleted()
		if st == StateDeleted {
			break
		}

		s.mu.Lock()
		if s.state != StateRunning {
			s.mu.Unlock()
			continue
		}
		wait := s.nextWaitLocked()
		wakeCh := s.wakeCh
		stateCh := s.stateCh
		s.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-wakeCh:
		case <-stateCh:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		s.mu.Lock()
		if s.state == StateRunning {
			s.dispatchDueLocked()
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.drainLocked()
	s.mu.Unlock()
	close(s.doneCh)
}

// nextWaitLocked computes how long the dispatcher should sleep: until
// the current due-time minimum, or DefaultWake if none is pending.
func (s *Scheduler) nextWaitLocked() time.Duration {
	current := s.due.min()
	if current == nil {
		return DefaultWake
	}
	d := time.Duration(current.start - clock.NowNs())
	if d < 0 {
		return 0
	}
	return d
}

// dispatchDueLocked runs every schedule whose deadline has elapsed,
// requeuing or idling each one per spec.md §4.3's repeat bookkeeping.
// Called with s.mu held.
func (s *Scheduler) dispatchDueLocked() {
	now := clock.NowNs()
	for {
		current := s.due.min()
		if current == nil || current.start >= now {
			break
		}

		if current.runCB != nil {
			current.runCB(current.arg)
		}

		if current.pool != nil {
			accepted := current.pool.TrySubmit(func() { current.fn(current.arg) }, current.priority)
			if accepted {
				if s.metrics != nil {
					s.metrics.Dispatched(current.id)
				}
			} else {
				if current.abortCB != nil {
					current.abortCB(current.arg)
				}
				if current.dropped.Add(1) == 1 {
					s.log.Warn("schedule dispatch dropped by pool", logging.Uint64("id", current.id))
				}
				if s.metrics != nil {
					s.metrics.Dropped(current.id)
				}
			}
		} else {
			go runDedicated(current)
			if s.metrics != nil {
				s.metrics.Dispatched(current.id)
			}
		}

		next := now + current.period
		if current.repeat > 0 {
			current.repeat--
			if current.repeat == 0 {
				s.due.remove(current)
				current.scheduled = false
				s.idle[current.id] = current
			} else {
				s.due.update(current, next)
			}
		} else {
			s.due.update(current, next)
		}
	}
	if s.metrics != nil {
		s.metrics.QueueDepth(s.due.Len())
	}
}

// runDedicated executes a pool-less schedule's work function on a fresh
// goroutine, applying its priority/affinity hint via threadutil.Pin.
func runDedicated(sch *Schedule) {
	threadutil.Pin(&sch.priority, sch.affinity)
	sch.fn(sch.arg)
}

// drainLocked frees every remaining schedule in both maps, calling each
// one's free_fn exactly once, per spec.md §4.4's Free contract.
func (s *Scheduler) drainLocked() {
	for s.due.Len() > 0 {
		sch := heapPopAny(s.due)
		freeSchedule(sch)
	}
	for id, sch := range s.idle {
		delete(s.idle, id)
		freeSchedule(sch)
	}
}

func freeSchedule(sch *Schedule) {
	if sch.freeFn != nil {
		sch.freeFn(sch.arg)
	}
}

// heapPopAny removes and returns the schedule in the due heap's last
// slot, which is not necessarily the minimum: removing the last slot
// needs no re-heapify, and drain order does not matter once the
// scheduler is being torn down.
func heapPopAny(h *dueHeap) *Schedule {
	sch := h.slots[len(h.slots)-1]
	h.remove(sch)
	return sch
}
