// Command rcudemo drives the reclamation engine with a synthetic
// multi-producer burst-and-barrier workload and prints the resulting
// metrics, the same role the teacher's ublk-mem CLI plays in standing
// up a concrete backend and reporting what happened.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	rcu "github.com/userspace-rcu/go-rcu"
	"github.com/userspace-rcu/go-rcu/internal/logging"
)

func main() {
	var (
		producers   = flag.Int("producers", 4, "number of producer goroutines")
		perWorker   = flag.Int("n", 100000, "callbacks deferred per producer")
		ringSize    = flag.Int("ring-size", rcu.DefaultRingSize, "per-producer defer-queue capacity (rounded up to a power of two)")
		gracePeriod = flag.Duration("grace-period", time.Millisecond, "simulated cost of wait_for_grace_period()")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	metrics := rcu.NewMetrics()
	waiter := &sleepWaiter{d: *gracePeriod}
	domain := rcu.NewDomain(ctx, waiter, rcu.WithLogger(logger), rcu.WithMetrics(metrics), rcu.WithRingSize(*ringSize))
	defer domain.Shutdown()

	logger.Info("starting workload", "producers", *producers, "per_worker", *perWorker, "ring_size", *ringSize)

	var released atomic.Int64
	freed := rcu.DeferFunc(func(unsafe.Pointer) { released.Add(1) })

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h := domain.RegisterThread()
			defer h.Unregister()
			for j := 0; j < *perWorker; j++ {
				h.Defer(freed, unsafe.Pointer(uintptr(id*(*perWorker)+j)))
			}
		}(i)
	}
	wg.Wait()
	enqueueElapsed := time.Since(start)

	domain.Barrier()
	totalElapsed := time.Since(start)
	metrics.Stop()

	want := int64(*producers) * int64(*perWorker)
	fmt.Printf("deferred=%d released=%d (want %d)\n", metrics.Snapshot().TotalDeferred, released.Load(), want)
	fmt.Printf("enqueue phase: %s, total with final barrier: %s\n", enqueueElapsed, totalElapsed)

	snap := metrics.Snapshot()
	fmt.Printf("barrier passes: %d, grace-period waits: %d, self-drains: %d, wakes: %d\n",
		snap.BarrierPasses, snap.GracePeriodWaits, snap.TotalSelfDrains, snap.TotalWakes)
	fmt.Printf("avg queue depth: %.1f, max queue depth: %d\n", snap.AvgQueueDepth, snap.MaxQueueDepth)
	fmt.Printf("avg grace-period latency: %s, p50: %s, p99: %s\n",
		time.Duration(snap.AvgGracePeriodLatencyNs),
		time.Duration(snap.GracePeriodLatencyP50Ns),
		time.Duration(snap.GracePeriodLatencyP99Ns))

	if released.Load() != want {
		logger.Error("not all deferred callbacks were released", "released", released.Load(), "want", want)
		os.Exit(1)
	}
}

// sleepWaiter is a stand-in for a real RCU grace-period primitive: it
// just sleeps for a fixed duration, simulating the cost of waiting
// out every pre-existing reader without requiring actual RCU
// reader-side machinery (spec.md §1 explicitly treats both as
// out-of-scope external collaborators).
type sleepWaiter struct {
	d time.Duration
}

func (w *sleepWaiter) WaitForGracePeriod() {
	time.Sleep(w.d)
}
