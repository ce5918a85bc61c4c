package queue

// Entry binds one registered producer to its queue and the head
// value last snapshotted for it by a barrier pass.
type Entry struct {
	ID       uint64
	Queue    *DeferQueue
	Snapshot uint64
}

// Registry is the process-wide table of registered producers.
// Every method assumes the caller holds the defer mutex; Registry
// itself performs no locking.
type Registry struct {
	entries []*Entry
}

// NewRegistry creates an empty registry. Initial capacity is small
// (Go's append already grows geometrically, satisfying the "grows
// geometrically; never shrinks" requirement without hand-rolled
// doubling) and never shrinks: Remove swaps the last entry into the
// vacated slot and truncates, so live entries never get recopied.
func NewRegistry() *Registry {
	return &Registry{entries: make([]*Entry, 0, initialCapacity)}
}

const initialCapacity = 4

// Add appends a new entry for id/q.
func (r *Registry) Add(id uint64, q *DeferQueue) {
	r.entries = append(r.entries, &Entry{ID: id, Queue: q})
}

// Remove deletes the entry for id, if present, by swapping the last
// entry into its slot (order is not meaningful to any consumer of the
// registry) and reports whether anything was removed.
func (r *Registry) Remove(id uint64) (*Entry, bool) {
	for i, e := range r.entries {
		if e.ID == id {
			last := len(r.entries) - 1
			removed := r.entries[i]
			r.entries[i] = r.entries[last]
			r.entries[last] = nil
			r.entries = r.entries[:last]
			return removed, true
		}
	}
	return nil, false
}

// Find returns the entry for id, if present.
func (r *Registry) Find(id uint64) (*Entry, bool) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of registered producers.
func (r *Registry) Len() int { return len(r.entries) }

// SnapshotHeads records each entry's current head (read with acquire
// semantics via DeferQueue.Head) into its Snapshot field and returns
// the total pending record count across every queue at snapshot time.
func (r *Registry) SnapshotHeads() uint64 {
	var total uint64
	for _, e := range r.entries {
		h := e.Queue.Head()
		e.Snapshot = h
		total += h - e.Queue.Tail()
	}
	return total
}

// ForEach iterates entries in current (unspecified) order.
func (r *Registry) ForEach(f func(*Entry)) {
	for _, e := range r.entries {
		f(e)
	}
}
