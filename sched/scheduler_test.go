package sched

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/pool"
)

func newTestScheduler() *Scheduler {
	s := New(nil, nil, nil)
	s.Start()
	return s
}

// S1 — single-shot fires once.
func TestSingleShotFiresOnce(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	var calls atomic.Int32
	sch := s.Create(func(arg any) {
		calls.Add(1)
	}, nil, nil, 100*time.Millisecond, 50*time.Millisecond, 1, nil, 0)
	s.Add(sch)

	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one call, got %d", got)
	}
	if sch.scheduled {
		t.Fatalf("expected schedule to have moved to the idle map")
	}
	if sch.Dropped() != 0 {
		t.Fatalf("expected zero drops, got %d", sch.Dropped())
	}
}

// S2 — periodic schedule against a saturating pool drops the excess.
func TestPeriodicPoolSaturationDrops(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	var running atomic.Bool
	busyPool := pool.Func(func(fn func(), priority int) bool {
		if !running.CompareAndSwap(false, true) {
			return false
		}
		go func() {
			defer running.Store(false)
			fn()
		}()
		return true
	})

	var invocations atomic.Int32
	var aborts atomic.Int32
	sch := s.Create(func(arg any) {
		invocations.Add(1)
		time.Sleep(500 * time.Millisecond)
	}, nil, nil, 50*time.Millisecond, 0, 0, busyPool, 0)
	s.AddAbortCallback(sch, func(arg any) { aborts.Add(1) })
	s.Add(sch)

	time.Sleep(400 * time.Millisecond)

	if got := invocations.Load(); got < 1 {
		t.Fatalf("expected at least one invocation, got %d", got)
	}
	if sch.Dropped() < 6 {
		t.Fatalf("expected at least 6 drops, got %d", sch.Dropped())
	}
	if int64(aborts.Load()) != int64(sch.Dropped()) {
		t.Fatalf("expected abort callback once per drop: aborts=%d dropped=%d", aborts.Load(), sch.Dropped())
	}
}

// S3 — deadline tie-break: same nominal start fires in submission order.
func TestTieBreakIsFIFO(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	var mu sync.Mutex
	var order []string
	record := func(name string) WorkFunc {
		return func(arg any) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	a := s.Create(record("A"), nil, nil, 0, 0, 1, nil, 0)
	b := s.Create(record("B"), nil, nil, 0, 0, 1, nil, 0)
	s.Add(a)
	s.Add(b)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("expected [A B] dispatch order, got %v", order)
	}
}

// S4 — reset while scheduled pushes the next fire out from the reset
// point, not the original start offset.
func TestResetWhileScheduled(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	start := time.Now()
	var fired atomic.Int64
	sch := s.Create(func(arg any) {
		fired.Store(time.Since(start).Nanoseconds())
	}, nil, nil, time.Second, 100*time.Millisecond, 2, nil, 0)
	s.Add(sch)

	time.Sleep(50 * time.Millisecond)
	s.Reset(sch)

	time.Sleep(1200 * time.Millisecond)

	got := time.Duration(fired.Load())
	if got < 900*time.Millisecond || got > 1300*time.Millisecond {
		t.Fatalf("expected fire around 1050ms after creation, got %v", got)
	}
}

// S5 — delete during wait prevents the work function from ever running
// and frees the schedule's arg exactly once.
func TestDeleteDuringWaitPreventsFire(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	var fired atomic.Bool
	var freed atomic.Int32
	sch := s.Create(func(arg any) {
		fired.Store(true)
	}, func(arg any) {
		freed.Add(1)
	}, "owned", 0, 10*time.Second, 1, nil, 0)
	s.Add(sch)

	time.Sleep(20 * time.Millisecond)
	s.Delete(sch)

	time.Sleep(50 * time.Millisecond)

	if fired.Load() {
		t.Fatalf("expected work function never to run")
	}
	if freed.Load() != 1 {
		t.Fatalf("expected free_fn called exactly once, got %d", freed.Load())
	}
}

// TestAddInPast documents and regression-tests spec.md §9's first open
// question: adding a schedule whose start already lies in the past
// fires at the dispatcher's next wake rather than skipping to the next
// period boundary.
func TestAddInPast(t *testing.T) {
	s := newTestScheduler()
	defer s.Free()

	var calls atomic.Int32
	sch := s.Create(func(arg any) {
		calls.Add(1)
	}, nil, nil, time.Hour, -time.Hour, 1, nil, 0)
	s.Add(sch)

	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 1 {
		t.Fatalf("expected schedule with a past start to fire immediately, got %d calls", calls.Load())
	}
}

// TestDueHeapInvariants fuzzes add/remove/update sequences and checks
// that the heap stays a valid min-heap with a consistent id index.
func TestDueHeapInvariants(t *testing.T) {
	h := newDueHeap()
	schedules := make([]*Schedule, 0, 64)
	var nextID uint64

	newSchedule := func(start int64) *Schedule {
		nextID++
		return &Schedule{id: nextID, start: start, heapIndex: -1}
	}

	for i := 0; i < 50; i++ {
		sch := newSchedule(int64(i * 7 % 23))
		h.add(sch)
		schedules = append(schedules, sch)
	}

	checkInvariants := func() {
		for i, s := range h.slots {
			if s.heapIndex != i {
				t.Fatalf("slot %d holds schedule with heapIndex %d", i, s.heapIndex)
			}
			if idx, ok := h.index[s.id]; !ok || idx != i {
				t.Fatalf("index for id %d is %d, want %d", s.id, idx, i)
			}
			left, right := 2*i+1, 2*i+2
			if left < len(h.slots) && h.slots[left].start < s.start {
				t.Fatalf("heap property violated at %d/%d", i, left)
			}
			if right < len(h.slots) && h.slots[right].start < s.start {
				t.Fatalf("heap property violated at %d/%d", i, right)
			}
		}
		seenStarts := make(map[int64]bool, len(h.slots))
		for _, s := range h.slots {
			if seenStarts[s.start] {
				t.Fatalf("duplicate start %d in heap", s.start)
			}
			seenStarts[s.start] = true
		}
	}
	checkInvariants()

	for i, sch := range schedules {
		if i%3 == 0 {
			h.remove(sch)
		} else if i%3 == 1 {
			h.update(sch, sch.start+1000)
		}
	}
	checkInvariants()
}

// S6-adjacent: Free invokes every remaining schedule's free_fn exactly
// once, across both the due heap and the idle map.
func TestFreeCallsFreeFnExactlyOnce(t *testing.T) {
	s := New(nil, nil, nil)
	s.Start()

	var freedArgs []int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		i := i
		sch := s.Create(func(arg any) {}, func(arg any) {
			mu.Lock()
			freedArgs = append(freedArgs, arg.(int))
			mu.Unlock()
		}, i, time.Hour, time.Hour, 1, nil, 0)
		if i%2 == 0 {
			s.Add(sch)
		}
	}

	s.Free()

	mu.Lock()
	defer mu.Unlock()
	if len(freedArgs) != 5 {
		t.Fatalf("expected free_fn called for all 5 schedules, got %d", len(freedArgs))
	}
}
