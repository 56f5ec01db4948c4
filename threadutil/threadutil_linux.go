//go:build linux

package threadutil

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// pin locks the calling goroutine to its OS thread, then applies
// SCHED_OTHER niceness via setpriority(2) and CPU affinity via
// sched_setaffinity(2), grounded on the same golang.org/x/sys/unix
// low-level-syscall pattern the examples reach for elsewhere (signal
// and process control in inipew-pewbot, file-descriptor control in
// warpdl-warpdl) rather than a higher-level scheduling package, since
// none of the examples carry one.
func pin(priority, affinity *int) error {
	runtime.LockOSThread()

	if priority != nil {
		if err := unix.Setpriority(unix.PRIO_PROCESS, 0, *priority); err != nil {
			return fmt.Errorf("threadutil: setpriority: %w", err)
		}
	}

	if affinity != nil {
		var set unix.CPUSet
		set.Set(*affinity)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("threadutil: sched_setaffinity: %w", err)
		}
	}

	return nil
}
