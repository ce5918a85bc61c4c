package reclaim

import (
	"time"

	"github.com/userspace-rcu/go-rcu/internal/interfaces"
	"github.com/userspace-rcu/go-rcu/internal/queue"
)

// BarrierAll snapshots every registered queue's head, waits for a
// single grace period covering all of them, then drains each queue up
// to its snapshot. Callers must already hold the defer mutex.
//
// A snapshot-then-wait-then-drain ordering is what lets an arbitrarily
// large burst of defer() calls across every producer amortize into
// one grace-period wait: anything appended after the snapshot is
// picked up on the next pass, never this one.
func BarrierAll(reg *queue.Registry, waiter interfaces.GracePeriodWaiter, logger interfaces.Logger, obs interfaces.Observer) int {
	pending := reg.SnapshotHeads()
	if pending == 0 {
		if logger != nil {
			logger.Debugf("barrier pass skipped, nothing pending")
		}
		return 0
	}

	if obs != nil {
		reg.ForEach(func(e *queue.Entry) {
			obs.ObserveQueueDepth(e.Snapshot - e.Queue.Tail())
		})
	}

	start := time.Now()
	waiter.WaitForGracePeriod()
	elapsed := time.Since(start)

	if obs != nil {
		obs.ObserveBarrierPass(pending, true, elapsed)
	}
	if logger != nil {
		logger.Debugf("grace period elapsed in %s, pending=%d", elapsed, pending)
	}

	total := 0
	reg.ForEach(func(e *queue.Entry) {
		n := e.Queue.DrainUpTo(e.Snapshot)
		total += n
		if n > 0 {
			if obs != nil {
				obs.ObserveDrained(e.ID, n)
			}
			if logger != nil {
				logger.Debugf("thread %d drained %d callbacks", e.ID, n)
			}
		}
	})
	return total
}

// BarrierThread runs a grace-period wait and drain for a single
// registered entry, used by the synchronous per-thread barrier
// operation. Callers must already hold the defer mutex.
func BarrierThread(e *queue.Entry, waiter interfaces.GracePeriodWaiter, logger interfaces.Logger, obs interfaces.Observer) int {
	head := e.Queue.Head()
	tail := e.Queue.Tail()
	if head == tail {
		return 0
	}

	if obs != nil {
		obs.ObserveQueueDepth(head - tail)
	}

	start := time.Now()
	waiter.WaitForGracePeriod()
	elapsed := time.Since(start)

	if obs != nil {
		obs.ObserveBarrierPass(head-tail, true, elapsed)
	}

	n := e.Queue.DrainUpTo(head)
	if n > 0 {
		if obs != nil {
			obs.ObserveDrained(e.ID, n)
		}
		if logger != nil {
			logger.Debugf("thread %d barrier drained %d callbacks", e.ID, n)
		}
	}
	return n
}
