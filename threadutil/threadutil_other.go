//go:build !linux

package threadutil

import "errors"

// pin is a portable no-op: priority and affinity tuning has no stdlib
// equivalent outside Linux's setpriority/sched_setaffinity syscalls.
func pin(priority, affinity *int) error {
	if priority == nil && affinity == nil {
		return nil
	}
	return errors.New("threadutil: thread priority/affinity tuning is not supported on this platform")
}
