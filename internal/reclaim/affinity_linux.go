//go:build linux

package reclaim

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPUs locks the calling goroutine to its current OS thread and
// restricts that thread to cpus, mirroring the teacher's per-queue
// CPUAffinity option. Must be called from the run loop's own
// goroutine before it starts serving, never from outside it.
func pinToCPUs(cpus []int) {
	if len(cpus) == 0 {
		return
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	_ = unix.SchedSetaffinity(0, &set)
}
