// Package rcu implements a batched deferred-reclamation engine for a
// userspace RCU system: producers enqueue (function, argument) pairs
// and each is invoked only after an RCU grace period has elapsed
// since it was enqueued.
package rcu

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/userspace-rcu/go-rcu/internal/constants"
	"github.com/userspace-rcu/go-rcu/internal/interfaces"
	"github.com/userspace-rcu/go-rcu/internal/logging"
	"github.com/userspace-rcu/go-rcu/internal/queue"
	"github.com/userspace-rcu/go-rcu/internal/reclaim"
	"github.com/userspace-rcu/go-rcu/internal/wake"
)

// GracePeriodWaiter is the external grace-period primitive. The
// engine never implements it — §1 treats it as a pluggable
// collaborator — it only calls it at most once per barrier pass.
type GracePeriodWaiter = interfaces.GracePeriodWaiter

// Logger is the logging sink a Domain writes to. *logging.Logger
// satisfies it directly.
type Logger = interfaces.Logger

// componentLogger tags l's output with component when l is a
// *logging.Logger, so a single configured sink can distinguish the
// Domain's own lifecycle events from the background reclamation
// thread's. A caller-supplied Logger that doesn't implement
// WithComponent (e.g. a test double) is returned unchanged rather
// than wrapped, since interfaces.Logger makes no such promise.
func componentLogger(l Logger, component string) Logger {
	lg, ok := l.(*logging.Logger)
	if !ok || lg == nil {
		return l
	}
	return lg.WithComponent(component)
}

// DeferFunc is a deferred callback. It must not be a closure whose
// behavior depends on per-call captured state: its identity (code
// entry address) is what gets deduplicated against the previous
// call's function, exactly as the original's bare `fct` code pointer
// carries no per-call data of its own. Per-call data belongs in arg.
type DeferFunc = queue.DeferFunc

// Domain owns one reclamation engine: a registry of per-thread defer
// queues, the wake channel and background thread that drain them, and
// the grace-period collaborator used to do it safely.
//
// threadMu guards registration/unregistration of Deferer handles;
// deferMu guards the registry's contents and is held for the duration
// of every Defer(), BarrierAll and BarrierThread call. threadMu is
// always acquired before deferMu, never the reverse, and neither is
// ever acquired recursively — internal/reclaim's functions assume
// deferMu is already held and never lock it themselves.
type Domain struct {
	threadMu sync.Mutex
	deferMu  sync.Mutex

	registry *queue.Registry
	wakeCh   *wake.Channel
	waiter   GracePeriodWaiter
	thread   *reclaim.Thread

	logger Logger
	obs    interfaces.Observer

	ringSize int
	nextID   atomic.Uint64

	affinity []int
}

// Option configures a Domain at construction time.
type Option func(*Domain)

// WithLogger installs a Logger used for routine and lifecycle events.
func WithLogger(l Logger) Option {
	return func(d *Domain) { d.logger = l }
}

// WithMetrics installs m as the Domain's Observer, wiring its atomic
// counters up to every Defer/drain/wake/barrier event.
func WithMetrics(m *Metrics) Option {
	return func(d *Domain) { d.obs = &metricsObserver{m: m} }
}

// WithRingSize overrides the per-thread defer-queue capacity. It is
// rounded up to the next power of two by internal/queue. Panics with
// ErrCodeInvalidParameters if size <= 0.
func WithRingSize(size int) Option {
	return func(d *Domain) {
		if size <= 0 {
			fatalf("WithRingSize", ErrCodeInvalidParameters, "ring size must be positive, got %d", size)
		}
		d.ringSize = size
	}
}

// WithReclaimAffinity pins the reclamation thread's OS thread to the
// given CPU set via sched_setaffinity, mirroring the teacher's
// per-queue CPUAffinity option. A no-op on non-Linux platforms.
func WithReclaimAffinity(cpus []int) Option {
	return func(d *Domain) { d.affinity = cpus }
}

// NewDomain constructs a Domain and starts its background
// reclamation thread. waiter must not be nil: the engine has no
// built-in opinion on how grace periods are detected.
func NewDomain(ctx context.Context, waiter GracePeriodWaiter, opts ...Option) *Domain {
	if waiter == nil {
		fatalf("NewDomain", ErrCodeInvalidParameters, "waiter must not be nil")
	}

	d := &Domain{
		registry: queue.NewRegistry(),
		wakeCh:   wake.NewChannel(),
		waiter:   waiter,
		ringSize: constants.DefaultRingSize,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.thread = reclaim.NewThread(reclaim.Config{
		Registry:   d.registry,
		Wake:       d.wakeCh,
		Waiter:     d.waiter,
		Logger:     componentLogger(d.logger, "reclaim"),
		Observer:   d.obs,
		DeferMutex: &d.deferMu,
		Affinity:   d.affinity,
	})
	d.thread.Start(ctx)

	if d.logger != nil {
		componentLogger(d.logger, "rcu").Infof("domain started, ring size %d", d.ringSize)
	}
	return d
}

// Shutdown stops the background reclamation thread. It does not
// drain any remaining callbacks; call Barrier first if that matters.
func (d *Domain) Shutdown() {
	d.thread.Stop()
	if d.logger != nil {
		componentLogger(d.logger, "rcu").Infof("domain shut down")
	}
}

// RegisterThread allocates a new per-producer defer queue and returns
// a handle for it. The handle must not be shared across goroutines;
// callers without a natural single-goroutine-per-producer mapping
// should call RegisterThread once per worker and keep the handle in
// worker-local state.
func (d *Domain) RegisterThread() *Deferer {
	d.threadMu.Lock()
	defer d.threadMu.Unlock()

	id := d.nextID.Add(1)
	q := queue.NewDeferQueue(d.ringSize)

	d.deferMu.Lock()
	d.registry.Add(id, q)
	d.deferMu.Unlock()

	if d.logger != nil {
		componentLogger(d.logger, "rcu").Debugf("thread %d registered", id)
	}
	return &Deferer{domain: d, id: id, queue: q}
}

// Barrier runs one all-queue barrier pass: it snapshots every
// registered queue's pending callbacks, waits for a single grace
// period covering all of them, then drains each queue up to its
// snapshot.
func (d *Domain) Barrier() {
	d.deferMu.Lock()
	defer d.deferMu.Unlock()
	reclaim.BarrierAll(d.registry, d.waiter, componentLogger(d.logger, "reclaim"), d.obs)
}

// Metrics is unset by default; pass WithMetrics to NewDomain to
// enable it. Domain itself never constructs a Metrics — the root
// package leaves that to the caller, matching the teacher's pattern
// of an optional, caller-supplied Observer.

// Deferer is a per-producer handle returned by RegisterThread. It is
// the Go realization of the original's thread-local defer-queue
// state, passed explicitly because Go has no thread-local storage and
// goroutines migrate across OS threads.
type Deferer struct {
	domain *Domain
	id     uint64
	queue  *queue.DeferQueue

	mu           sync.Mutex
	unregistered bool
}

// Defer enqueues fn to run with arg once a grace period has elapsed.
// If the producer's ring is near capacity it synchronously drains its
// own queue first (self-drain), exactly as the original spec
// describes for a producer that would otherwise overflow its ring —
// via the same wait-then-drain path as BarrierThread, so a self-drain
// still performs exactly one WaitForGracePeriod() before invoking any
// callback, never a bare drain.
//
// fn must not be a closure with per-call captured state (see
// DeferFunc); arg is carried as a raw pointer the engine does not
// manage the lifetime of — callers must keep its target reachable by
// means outside the ring until the callback runs.
func (h *Deferer) Defer(fn DeferFunc, arg unsafe.Pointer) {
	h.checkRegistered("Defer")

	h.domain.deferMu.Lock()
	if h.queue.NeedsSelfDrain() {
		entry, ok := h.domain.registry.Find(h.id)
		if !ok {
			h.domain.deferMu.Unlock()
			fatalf("Defer", ErrCodeNotRegistered, "deferer %d not found in registry", h.id)
		}
		drained := reclaim.BarrierThread(entry, h.domain.waiter, componentLogger(h.domain.logger, "reclaim"), h.domain.obs)
		if h.domain.obs != nil {
			h.domain.obs.ObserveSelfDrain(drained)
		}
	}
	slots := h.queue.Defer(fn, arg)
	h.domain.deferMu.Unlock()

	if h.domain.obs != nil {
		h.domain.obs.ObserveDeferred(slots)
	}
	h.domain.wakeCh.Wake()
}

// BarrierThread runs a grace-period wait and drain scoped to this
// deferer's own queue only, without touching any other producer's
// backlog.
func (h *Deferer) BarrierThread() {
	h.checkRegistered("BarrierThread")

	h.domain.deferMu.Lock()
	defer h.domain.deferMu.Unlock()
	entry, ok := h.domain.registry.Find(h.id)
	if !ok {
		fatalf("BarrierThread", ErrCodeNotRegistered, "deferer %d not found in registry", h.id)
	}
	reclaim.BarrierThread(entry, h.domain.waiter, componentLogger(h.domain.logger, "reclaim"), h.domain.obs)
}

// Unregister drains this deferer's queue (as BarrierThread would) and
// removes it from its domain's registry. Per the Defer Queue lifetime
// invariant, a queue is guaranteed empty before its storage is freed:
// nothing enqueued before Unregister is ever dropped. Unregistering
// twice is a programmer error and panics.
func (h *Deferer) Unregister() {
	h.mu.Lock()
	if h.unregistered {
		h.mu.Unlock()
		fatalf("Unregister", ErrCodeAlreadyRegistered, "deferer %d already unregistered", h.id)
	}
	h.unregistered = true
	h.mu.Unlock()

	h.domain.threadMu.Lock()
	defer h.domain.threadMu.Unlock()

	h.domain.deferMu.Lock()
	entry, ok := h.domain.registry.Find(h.id)
	if ok {
		reclaim.BarrierThread(entry, h.domain.waiter, componentLogger(h.domain.logger, "reclaim"), h.domain.obs)
		entry, ok = h.domain.registry.Remove(h.id)
	}
	h.domain.deferMu.Unlock()
	if !ok {
		fatalf("Unregister", ErrCodeNotRegistered, "deferer %d not found in registry", h.id)
	}
	entry.Queue.Release()

	if h.domain.logger != nil {
		componentLogger(h.domain.logger, "rcu").Debugf("thread %d unregistered", h.id)
	}
}

func (h *Deferer) checkRegistered(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unregistered {
		fatalf(op, ErrCodeNotRegistered, "deferer %d already unregistered", h.id)
	}
}

// compile-time interface checks
var (
	_ interfaces.Observer = (*metricsObserver)(nil)
	_ GracePeriodWaiter    = (*MockWaiter)(nil)
)
