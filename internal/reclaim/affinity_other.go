//go:build !linux

package reclaim

// pinToCPUs is a no-op on platforms without sched_setaffinity.
func pinToCPUs(cpus []int) {}
