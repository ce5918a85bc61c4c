package wake

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestChannel_WaitReturnsImmediatelyWhenPending(t *testing.T) {
	c := NewChannel()
	done := make(chan struct{})
	go func() {
		c.Wait(context.Background(), func() bool { return true })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return for an already-pending condition")
	}
}

func TestChannel_WakeReleasesWaiter(t *testing.T) {
	c := NewChannel()
	var ready atomic.Bool
	done := make(chan struct{})

	go func() {
		c.Wait(context.Background(), func() bool { return ready.Load() })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // give the waiter time to park
	ready.Store(true)
	c.Wake()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wake did not release a parked waiter")
	}
}

func TestChannel_WakeAgainstIdleIsNoop(t *testing.T) {
	c := NewChannel()
	c.Wake() // must not panic or block with no waiter present
}

func TestChannel_WaitRespectsContextCancellation(t *testing.T) {
	c := NewChannel()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		c.Wait(ctx, func() bool { return false })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not honor context cancellation")
	}
}
