// Package queue implements the per-thread defer ring and the
// process-wide deferer registry: the lock-free single-producer/
// single-consumer discipline at the core of the reclamation engine.
package queue

import (
	"sync/atomic"
	"unsafe"
)

// DeferQueue is a fixed-capacity ring of pending (function, argument)
// records, owned exclusively by one producer. head is written only
// by the owner and read by any thread; tail is written only by
// whichever thread holds the defer mutex during a drain, but may be
// read by the owner without the mutex.
//
// head and tail are uint64 counters that increase monotonically and
// wrap via Go's well-defined unsigned arithmetic; head-tail is always
// taken modulo 2^64, so wraparound (unreachable at any realistic call
// volume) is not a special case.
type DeferQueue struct {
	ring []atomic.Uintptr
	mask uint64

	head atomic.Uint64
	tail atomic.Uint64

	// lastFctIn is producer-local scratch: no synchronization needed,
	// only the owner ever reads or writes it.
	lastFctIn uintptr

	// lastFctOut is consumer-side scratch, touched only by DrainUpTo
	// under the defer mutex. It carries over from one DrainUpTo call
	// to the next: lastFctIn is never reset by a drain, so the first
	// record after a drained prefix can be an argument-only slot for
	// the function decoded last time.
	lastFctOut uintptr
}

// NewDeferQueue allocates a ring of the given capacity, rounded up to
// the next power of two if it isn't one already, with a minimum of 2.
func NewDeferQueue(capacity int) *DeferQueue {
	n := roundUpPow2(capacity)
	ring := getRing(n)
	return &DeferQueue{
		ring: ring,
		mask: uint64(n) - 1,
	}
}

// Release returns the queue's backing ring to the shared pool. Must
// only be called once the queue is guaranteed empty (drained) and no
// longer reachable from the registry.
func (q *DeferQueue) Release() {
	putRing(q.ring)
	q.ring = nil
}

func roundUpPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the ring's slot count Q.
func (q *DeferQueue) Capacity() uint64 { return q.mask + 1 }

// Head returns the current head index with acquire semantics: safe
// to call from any thread, reflects every slot write that happened
// before the owner published this head value.
func (q *DeferQueue) Head() uint64 { return q.head.Load() }

// Tail returns the current tail index. tail is only ever mutated
// under the defer mutex, but may be read freely.
func (q *DeferQueue) Tail() uint64 { return q.tail.Load() }

// Pending returns the number of records not yet drained.
func (q *DeferQueue) Pending() uint64 { return q.head.Load() - q.tail.Load() }

// NeedsSelfDrain reports whether the ring is close enough to full
// that the next defer() call (up to MaxSlotsPerDefer slots) could
// overflow it. Callers must self-drain (barrier_thread) before
// calling Defer when this returns true.
func (q *DeferQueue) NeedsSelfDrain() bool {
	return q.head.Load()-q.tail.Load() >= q.Capacity()-reserveHeadroom
}

const reserveHeadroom = 2

func (q *DeferQueue) writeSlot(idx uint64, v uintptr) {
	q.ring[idx&q.mask].Store(v)
}

// Defer encodes one (fn, arg) record at the current head and
// publishes the advanced head with release semantics. Must only be
// called by the owning producer, and only once NeedsSelfDrain is
// false. Returns the number of slots written (1, 2, or 3), which
// callers may report to metrics.
//
// Encoding (see the package doc for the full rationale): a new
// function identity is written as a tagged (identity|1) slot followed
// by its argument (shape A), unless the identity or the argument
// collides with the tag space, in which case the sentinel-escape form
// is used instead (shape B: mark, identity, argument). A repeated identity only
// writes its argument (shape C), again escaping through the sentinel
// form if the argument itself would be ambiguous.
func (q *DeferQueue) Defer(fn DeferFunc, arg unsafe.Pointer) int {
	head := q.head.Load()
	fctID := registerFunc(fn)
	argv := uintptr(arg)
	n := uint64(0)

	if fctID != q.lastFctIn {
		if plainlyEncodable(fctID) && plainlyEncodable(argv) {
			q.writeSlot(head+n, fctID|1)
			n++
			q.writeSlot(head+n, argv)
			n++
		} else {
			q.writeSlot(head+n, dqFctMark)
			n++
			q.writeSlot(head+n, fctID)
			n++
			q.writeSlot(head+n, argv)
			n++
		}
		q.lastFctIn = fctID
	} else if plainlyEncodable(argv) {
		q.writeSlot(head+n, argv)
		n++
	} else {
		q.writeSlot(head+n, dqFctMark)
		n++
		q.writeSlot(head+n, fctID)
		n++
		q.writeSlot(head+n, argv)
		n++
	}

	q.head.Store(head + n)
	return int(n)
}

// DrainUpTo decodes and invokes every record between the current tail
// and headSnapshot (exclusive), then publishes the advanced tail with
// release semantics. Callers must hold the defer mutex; draining two
// queues concurrently for the same tail is a race.
func (q *DeferQueue) DrainUpTo(headSnapshot uint64) int {
	pos := q.tail.Load()
	count := 0
	for pos < headSnapshot {
		v := q.ring[pos&q.mask].Load()
		switch {
		case v == dqFctMark:
			fctID := q.ring[(pos+1)&q.mask].Load()
			argv := q.ring[(pos+2)&q.mask].Load()
			q.lastFctOut = fctID
			invoke(fctID, argv)
			pos += 3
		case v&1 == 1:
			fctID := v &^ 1
			argv := q.ring[(pos+1)&q.mask].Load()
			q.lastFctOut = fctID
			invoke(fctID, argv)
			pos += 2
		default:
			invoke(q.lastFctOut, v)
			pos++
		}
		count++
	}
	q.tail.Store(pos)
	return count
}

func invoke(fctID, argv uintptr) {
	fn := lookupFunc(fctID)
	fn(pointerFromUintptr(argv))
}
