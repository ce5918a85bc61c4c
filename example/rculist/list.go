// Package rculist is a worked example of the reclamation engine: an
// RCU-guarded singly-linked list where readers walk the list without
// any lock and writers unlink a node, then defer its release until no
// reader can still be observing it.
//
// It plays the same role in this module that the teacher's in-memory
// backend (backend/mem.go, a plain Go struct behind a small
// mutex-free-for-reads API, exercised by its own tests) played for
// that repository: a concrete, realistic consumer of the package one
// level up, not part of the engine itself.
package rculist

import (
	"sync"
	"sync/atomic"
	"unsafe"

	rcu "github.com/userspace-rcu/go-rcu"
)

// Node is one list element. next is read by readers without
// synchronization (an atomic load) and mutated by writers under the
// list's write lock.
type Node struct {
	Value int
	next  atomic.Pointer[Node]
}

// List is a singly-linked list safe for any number of concurrent
// Contains readers racing against writers serialized by writeMu.
// Removed nodes are not freed synchronously: they are handed to the
// reclamation engine via Defer so a concurrent reader mid-traversal
// never sees a node released out from under it.
type List struct {
	head    atomic.Pointer[Node]
	writeMu sync.Mutex
	deferer *rcu.Deferer
}

// pendingFree holds every unlinked node from the moment Remove defers
// its release until freeNode actually runs. A DeferFunc (see
// rcu.DeferFunc) carries no per-call captured state, so it cannot
// close over cur to keep it alive itself; per SPEC_FULL.md's
// documented precondition ("the referenced memory is not a GC root
// while queued ... callers must keep it reachable by means outside
// the ring"), this map is that outside means. Keyed by the node's own
// address, which is exactly the value freeNode receives as arg.
var pendingFree sync.Map // uintptr -> *Node

// New creates an empty list whose writers defer node release through
// h. h must be registered against the same Domain for the lifetime of
// the list, exactly as the spec's "pass a handle explicitly"
// realization of per-thread state requires (see rcu.Deferer's doc
// comment): the list itself has no thread-local storage to lean on.
func New(h *rcu.Deferer) *List {
	return &List{deferer: h}
}

// Insert prepends value to the list. Safe for concurrent callers
// (serialized internally by writeMu); never observed half-built by a
// concurrent reader, since the new node is fully initialized before
// its pointer is published.
func (l *List) Insert(value int) {
	n := &Node{Value: value}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	n.next.Store(l.head.Load())
	l.head.Store(n)
}

// Contains reports whether value is present. It is the RCU reader
// side: a lock-free walk over atomic loads, the out-of-scope
// collaborator this package assumes rather than implements (see
// spec.md §1, "RCU reader-side machinery").
func (l *List) Contains(value int) bool {
	for n := l.head.Load(); n != nil; n = n.next.Load() {
		if n.Value == value {
			return true
		}
	}
	return false
}

// Remove unlinks the first node equal to value, if any, and defers
// its release: free_node is invoked with the unlinked node once a
// grace period proves no reader concurrent with this Remove can still
// be traversing through it. Reports whether a node was found.
func (l *List) Remove(value int) bool {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	var prev *Node
	cur := l.head.Load()
	for cur != nil {
		if cur.Value == value {
			next := cur.next.Load()
			if prev == nil {
				l.head.Store(next)
			} else {
				prev.next.Store(next)
			}
			pendingFree.Store(uintptr(unsafe.Pointer(cur)), cur)
			l.deferer.Defer(freeNode, unsafe.Pointer(cur))
			return true
		}
		prev = cur
		cur = cur.next.Load()
	}
	return false
}

// freeNode is the worked example's free_node: it runs on the
// reclamation thread once the grace period following Remove has
// elapsed. Go's garbage collector reclaims the Node's memory on its
// own; clearing next here is purely to make the node's release moment
// observable for tests, mirroring what a manual allocator's free()
// would do at this point in the original. Deleting from pendingFree
// drops the node's last artificial GC root — from here on, its
// memory is reclaimed whenever the collector next runs.
func freeNode(arg unsafe.Pointer) {
	n := (*Node)(arg)
	n.next.Store(nil)
	pendingFree.Delete(uintptr(arg))
}
