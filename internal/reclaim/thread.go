package reclaim

import (
	"context"
	"sync"
	"time"

	"github.com/userspace-rcu/go-rcu/internal/constants"
	"github.com/userspace-rcu/go-rcu/internal/interfaces"
	"github.com/userspace-rcu/go-rcu/internal/queue"
	"github.com/userspace-rcu/go-rcu/internal/wake"
)

// Thread is the background reclamation loop: it sleeps on the wake
// channel, coalesces a short window of producer activity, then runs
// one barrier pass over every registered queue.
type Thread struct {
	reg    *queue.Registry
	wakeCh *wake.Channel
	waiter interfaces.GracePeriodWaiter
	logger interfaces.Logger
	obs    interfaces.Observer

	mu       *sync.Mutex // the domain's defer mutex; Thread never owns it
	coalesce func()      // sleeps CoalesceDelay; overridable for tests
	affinity []int
	cancel   context.CancelFunc
	done     chan struct{}
}

// Config bundles the collaborators a Thread needs. DeferMutex must be
// the same mutex the domain uses to guard registry mutation and
// Defer() calls: the run loop locks it for the duration of each
// barrier pass, exactly as a producer would for its own queue access.
type Config struct {
	Registry   *queue.Registry
	Wake       *wake.Channel
	Waiter     interfaces.GracePeriodWaiter
	Logger     interfaces.Logger
	Observer   interfaces.Observer
	DeferMutex *sync.Mutex
	Coalesce   func() // optional override of the coalescing sleep, for tests
	Affinity   []int  // CPUs to pin the run-loop goroutine's OS thread to
}

// NewThread builds a reclamation thread. Start must be called to
// begin running it.
func NewThread(cfg Config) *Thread {
	coalesce := cfg.Coalesce
	if coalesce == nil {
		coalesce = func() { time.Sleep(constants.CoalesceDelay) }
	}
	return &Thread{
		reg:      cfg.Registry,
		wakeCh:   cfg.Wake,
		waiter:   cfg.Waiter,
		logger:   cfg.Logger,
		obs:      cfg.Observer,
		mu:       cfg.DeferMutex,
		coalesce: coalesce,
		affinity: cfg.Affinity,
		done:     make(chan struct{}),
	}
}

// Start launches the run loop in its own goroutine. Calling Start
// twice is a programmer error; it is not guarded against, matching
// the fatal-on-misuse posture of the rest of the engine.
func (t *Thread) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	go t.run(ctx)
}

// Stop signals the run loop to exit and blocks until it has.
func (t *Thread) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	<-t.done
}

func (t *Thread) run(ctx context.Context) {
	defer close(t.done)
	pinToCPUs(t.affinity)
	if t.logger != nil {
		t.logger.Debugf("thread started")
	}
	for {
		t.wakeCh.Wait(ctx, func() bool {
			t.mu.Lock()
			pending := t.reg.SnapshotHeads()
			t.mu.Unlock()
			return pending > 0
		})
		if ctx.Err() != nil {
			if t.logger != nil {
				t.logger.Debugf("thread stopping")
			}
			return
		}

		t.coalesce()

		if t.obs != nil {
			t.obs.ObserveWake()
		}

		t.mu.Lock()
		BarrierAll(t.reg, t.waiter, t.logger, t.obs)
		t.mu.Unlock()
	}
}
