package queue

import (
	"sync"
	"sync/atomic"
)

// Ring backing arrays are recycled across register/unregister cycles.
// A thread's DeferQueue is created at registration and freed at
// unregistration (see the Defer Queue lifetime invariant); under high
// registration churn that would otherwise allocate and discard a
// Q-sized array per thread. Pools are bucketed by exact size,
// mirroring the size-bucketed byte-slice pools this package's teacher
// used for I/O buffers, adapted here to pool ring storage instead.
//
// Go's sync.Pool only pools a single type per instance; since ring
// sizes are almost always the single configured default, keep a small
// map from size to a dedicated pool, created lazily and never removed
// (pool count is bounded by the number of distinct ring sizes a
// process configures, typically exactly one).
var (
	ringPoolsMu sync.Mutex
	ringPools   = map[int]*sync.Pool{}
)

func poolFor(size int) *sync.Pool {
	ringPoolsMu.Lock()
	defer ringPoolsMu.Unlock()
	p, ok := ringPools[size]
	if !ok {
		sz := size
		p = &sync.Pool{New: func() any {
			return make([]atomic.Uintptr, sz)
		}}
		ringPools[size] = p
	}
	return p
}

// getRing returns a zeroed ring of exactly size slots, reused from
// the pool when available.
func getRing(size int) []atomic.Uintptr {
	ring := poolFor(size).Get().([]atomic.Uintptr)
	for i := range ring {
		ring[i].Store(0)
	}
	return ring
}

// putRing returns a ring to the pool for reuse by a future
// registration. Callers must guarantee the ring is empty (drained)
// before releasing it.
func putRing(ring []atomic.Uintptr) {
	if ring == nil {
		return
	}
	poolFor(len(ring)).Put(ring)
}
