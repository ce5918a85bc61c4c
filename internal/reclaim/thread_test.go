package reclaim

import (
	"context"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/userspace-rcu/go-rcu/internal/queue"
	"github.com/userspace-rcu/go-rcu/internal/wake"
)

func TestThread_DrainsAfterWake(t *testing.T) {
	reg := queue.NewRegistry()
	q := queue.NewDeferQueue(64)
	reg.Add(1, q)

	drained := make(chan struct{}, 1)
	f := queue.DeferFunc(func(unsafe.Pointer) { drained <- struct{}{} })

	var mu sync.Mutex
	w := &countingWaiter{}
	th := NewThread(Config{
		Registry:   reg,
		Wake:       wake.NewChannel(),
		Waiter:     w,
		DeferMutex: &mu,
		Coalesce:   func() {},
	})

	ctx, cancel := context.WithCancel(context.Background())
	th.Start(ctx)
	defer th.Stop()

	mu.Lock()
	q.Defer(f, nil)
	mu.Unlock()
	th.wakeCh.Wake()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not drained after wake")
	}
	cancel()
}

func TestThread_StopIsIdempotentToWaitFor(t *testing.T) {
	reg := queue.NewRegistry()
	var mu sync.Mutex
	th := NewThread(Config{
		Registry:   reg,
		Wake:       wake.NewChannel(),
		Waiter:     &countingWaiter{},
		DeferMutex: &mu,
		Coalesce:   func() {},
	})
	th.Start(context.Background())
	th.Stop()
	th.Stop() // a second Stop must return immediately, not block
}
