package queue

import "testing"

func TestGetRing_SizeAndZeroed(t *testing.T) {
	ring := getRing(16)
	if len(ring) != 16 {
		t.Fatalf("getRing(16) returned len=%d, want 16", len(ring))
	}
	for i, s := range ring {
		if v := s.Load(); v != 0 {
			t.Errorf("slot %d not zeroed: %d", i, v)
		}
	}
	putRing(ring)
}

func TestRingPool_Reuse(t *testing.T) {
	ring1 := getRing(32)
	ring1[0].Store(0xdeadbeef)
	putRing(ring1)

	ring2 := getRing(32)
	// Reused or not, the slot must come back zeroed either way.
	if v := ring2[0].Load(); v != 0 {
		t.Errorf("expected zeroed slot after reuse, got %#x", v)
	}
	putRing(ring2)
}

func TestPutRing_Nil(t *testing.T) {
	// Must not panic.
	putRing(nil)
}
