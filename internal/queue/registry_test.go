package queue

import (
	"testing"
	"unsafe"
)

func TestRegistry_AddFindRemove(t *testing.T) {
	r := NewRegistry()
	q1 := NewDeferQueue(16)
	q2 := NewDeferQueue(16)

	r.Add(1, q1)
	r.Add(2, q2)
	if r.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", r.Len())
	}

	e, ok := r.Find(1)
	if !ok || e.Queue != q1 {
		t.Fatalf("Find(1) = %v, %v; want q1", e, ok)
	}

	removed, ok := r.Remove(1)
	if !ok || removed.Queue != q1 {
		t.Fatalf("Remove(1) = %v, %v; want q1", removed, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 entry after remove, got %d", r.Len())
	}
	if _, ok := r.Find(1); ok {
		t.Fatal("Find(1) should fail after removal")
	}
	if _, ok := r.Find(2); !ok {
		t.Fatal("Find(2) should still succeed: remove must not disturb other entries")
	}
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := NewRegistry()
	r.Add(1, NewDeferQueue(16))
	if _, ok := r.Remove(99); ok {
		t.Fatal("Remove of an unregistered id should report false")
	}
	if r.Len() != 1 {
		t.Fatalf("unrelated entry should survive a failed remove, len=%d", r.Len())
	}
}

func TestRegistry_SnapshotHeads(t *testing.T) {
	r := NewRegistry()
	q1 := NewDeferQueue(16)
	q2 := NewDeferQueue(16)
	r.Add(1, q1)
	r.Add(2, q2)

	q1.Defer(DeferFunc(func(arg unsafe.Pointer) {}), nil)
	q1.Defer(DeferFunc(func(arg unsafe.Pointer) {}), nil)
	q2.Defer(DeferFunc(func(arg unsafe.Pointer) {}), nil)

	total := r.SnapshotHeads()
	if total != q1.Pending()+q2.Pending() {
		t.Fatalf("SnapshotHeads total=%d, want %d", total, q1.Pending()+q2.Pending())
	}

	e1, _ := r.Find(1)
	if e1.Snapshot != q1.Head() {
		t.Fatalf("entry 1 snapshot=%d, want head=%d", e1.Snapshot, q1.Head())
	}
}

func TestRegistry_ForEach(t *testing.T) {
	r := NewRegistry()
	r.Add(1, NewDeferQueue(16))
	r.Add(2, NewDeferQueue(16))
	r.Add(3, NewDeferQueue(16))

	seen := map[uint64]bool{}
	r.ForEach(func(e *Entry) { seen[e.ID] = true })
	if len(seen) != 3 {
		t.Fatalf("expected to visit 3 entries, saw %d", len(seen))
	}
}
