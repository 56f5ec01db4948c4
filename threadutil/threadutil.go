// Package threadutil applies OS thread priority and CPU affinity hints
// to the goroutine executing a pool-less schedule's dedicated dispatch
// thread, per spec.md §3's `priority` field and §6's `Affinity`/
// `Priority` scheduler factory configuration.
//
// Go has no notion of a user-addressable OS thread the way the C
// original's pthread-based scheduler did; the closest equivalent is
// runtime.LockOSThread paired with the platform syscalls that tune the
// thread it locks to. Pin locks the calling goroutine to its OS thread
// for the remainder of its lifetime before applying the hints, which is
// appropriate here because it is only ever called from the one-shot
// goroutine spawned per dedicated dispatch (see sched.runDedicated) —
// never from a goroutine that is reused afterwards.
package threadutil

// Pin applies priority and affinity, if non-nil, to the calling
// goroutine's locked OS thread. Platforms without support return a
// non-nil error; callers that only want best-effort tuning may ignore
// it.
func Pin(priority, affinity *int) error {
	return pin(priority, affinity)
}
