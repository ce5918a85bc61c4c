// Package interfaces holds the small collaborator interfaces shared
// across the engine's internal packages, kept separate from the
// public API to avoid circular imports between it and the root
// package.
package interfaces

import "time"

// GracePeriodWaiter is the RCU grace-period primitive. It is an
// external collaborator: the engine never implements it, only calls
// it at most once per barrier pass. A call must not return until
// every reader that began before the call was made has completed its
// critical section.
type GracePeriodWaiter interface {
	WaitForGracePeriod()
}

// Logger is the optional logging sink used throughout the engine.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer receives engine events for metrics collection.
// Implementations must be safe for concurrent use: methods are called
// from producer goroutines and from the reclamation thread.
type Observer interface {
	ObserveDeferred(slots int)
	ObserveSelfDrain(drained int)
	ObserveWake()
	ObserveBarrierPass(pending uint64, waited bool, gracePeriodLatency time.Duration)
	ObserveDrained(thread uint64, count int)
	ObserveQueueDepth(depth uint64)
}
