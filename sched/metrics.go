package sched

// Metrics is an optional observability hook the dispatcher calls on
// every dispatch attempt. A nil Metrics is always safe: the scheduler
// only calls through it when one has been configured. The default
// implementation wired into cmd/iotscheduler is backed by
// github.com/prometheus/client_golang (see the metrics package).
type Metrics interface {
	// Dispatched records a successful submission (pool accepted it, or
	// the schedule has no pool and a dedicated thread was spawned).
	Dispatched(scheduleID uint64)

	// Dropped records a pool refusal.
	Dropped(scheduleID uint64)

	// QueueDepth records the current due-time heap size, sampled once
	// per dispatcher wake.
	QueueDepth(n int)
}
