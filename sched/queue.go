package sched

import (
	"container/heap"
)

// dueHeap is the due-time map: an indexed binary heap ordered by
// ascending Schedule.start, augmented with an id->slot index so a
// schedule can be removed or re-keyed in O(log n) without a linear scan.
// This generalizes the teacher project's container/heap-based
// scheduleStack (sched/queue.go in the original) from a plain priority
// queue into a keyed one, since spec.md's remove/reset/delete operations
// need removal by identity, not just Pop-the-minimum.
type dueHeap struct {
	slots []*Schedule
	index map[uint64]int // schedule id -> heap slot
	starts map[int64]uint64 // start value -> schedule id, for O(1) collision checks
}

func newDueHeap() *dueHeap {
	return &dueHeap{
		index:  make(map[uint64]int),
		starts: make(map[int64]uint64),
	}
}

func (h *dueHeap) Len() int { return len(h.slots) }

func (h *dueHeap) Less(i, j int) bool {
	return h.slots[i].start < h.slots[j].start
}

func (h *dueHeap) Swap(i, j int) {
	h.slots[i], h.slots[j] = h.slots[j], h.slots[i]
	h.slots[i].heapIndex = i
	h.slots[j].heapIndex = j
	h.index[h.slots[i].id] = i
	h.index[h.slots[j].id] = j
}

func (h *dueHeap) Push(x any) {
	s := x.(*Schedule)
	s.heapIndex = len(h.slots)
	h.index[s.id] = s.heapIndex
	h.starts[s.start] = s.id
	h.slots = append(h.slots, s)
}

func (h *dueHeap) Pop() any {
	old := h.slots
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	h.slots = old[:n-1]
	delete(h.index, s.id)
	delete(h.starts, s.start)
	s.heapIndex = -1
	return s
}

// min returns the schedule with the smallest start, or nil if empty.
func (h *dueHeap) min() *Schedule {
	if len(h.slots) == 0 {
		return nil
	}
	return h.slots[0]
}

// add inserts s, bumping s.start by one nanosecond on collision until
// the key is unique, per spec.md §4.2's tie-break rule. Returns true iff
// s is now the heap minimum.
func (h *dueHeap) add(s *Schedule) bool {
	for {
		if _, collide := h.starts[s.start]; !collide {
			break
		}
		s.start++
	}
	heap.Push(h, s)
	return h.slots[0] == s
}

// remove extracts s from the heap by identity.
func (h *dueHeap) remove(s *Schedule) {
	idx, ok := h.index[s.id]
	if !ok {
		return
	}
	heap.Remove(h, idx)
}

// update removes s, assigns newStart, and reinserts it, returning
// whether it is now the heap minimum.
func (h *dueHeap) update(s *Schedule, newStart int64) bool {
	h.remove(s)
	s.start = newStart
	return h.add(s)
}
