package rcu

import (
	"context"
	"testing"
	"unsafe"
)

func resetDefaultDomain(t *testing.T) {
	t.Helper()
	defaultMu.Lock()
	prev := defaultDomain
	defaultDomain = nil
	defaultMu.Unlock()
	t.Cleanup(func() {
		defaultMu.Lock()
		if defaultDomain != nil {
			defaultDomain.Shutdown()
		}
		defaultDomain = prev
		defaultMu.Unlock()
	})
}

func TestDefault_RegisterThreadBeforeInitIsFatal(t *testing.T) {
	resetDefaultDomain(t)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected RegisterThread before Init to panic")
		}
		if e, ok := r.(*Error); !ok || e.Code != ErrCodeNotInitialized {
			t.Fatalf("expected ErrCodeNotInitialized, got %v", r)
		}
	}()
	RegisterThread()
}

func TestDefault_InitThenRegisterAndBarrier(t *testing.T) {
	resetDefaultDomain(t)
	Init(context.Background(), NewMockWaiter(), WithRingSize(16))

	h := RegisterThread()
	defer h.Unregister()

	var called bool
	h.Defer(DeferFunc(func(unsafe.Pointer) { called = true }), nil)
	Barrier()

	if !called {
		t.Fatal("expected the deferred callback to run after Barrier")
	}
}

func TestDefault_DoubleInitIsFatal(t *testing.T) {
	resetDefaultDomain(t)
	Init(context.Background(), NewMockWaiter())

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a second Init to panic")
		}
	}()
	Init(context.Background(), NewMockWaiter())
}

func TestDefault_ShutdownWithoutInitIsFatal(t *testing.T) {
	resetDefaultDomain(t)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Shutdown without Init to panic")
		}
	}()
	Shutdown()
}
