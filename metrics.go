package rcu

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the grace-period-wait latency histogram
// buckets in nanoseconds, logarithmically spaced from 1us to 10s.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for a Domain.
type Metrics struct {
	TotalDeferred    atomic.Uint64 // total Defer() calls across all deferers
	TotalDrained     atomic.Uint64 // total callbacks invoked after a grace period
	TotalSelfDrains  atomic.Uint64 // drains triggered by a producer hitting ReserveHeadroom
	TotalWakes       atomic.Uint64 // times the reclamation thread was woken
	BarrierPasses    atomic.Uint64 // completed barrier passes (all-queue or per-thread)
	GracePeriodWaits atomic.Uint64 // actual wait_for_grace_period() invocations

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint64

	TotalGracePeriodLatencyNs atomic.Uint64
	GracePeriodLatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics returns a ready-to-use, zeroed Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordGracePeriodLatency(d time.Duration) {
	ns := uint64(d.Nanoseconds())
	m.TotalGracePeriodLatencyNs.Add(ns)
	m.GracePeriodWaits.Add(1)
	for i, bucket := range LatencyBuckets {
		if ns <= bucket {
			m.GracePeriodLatencyBuckets[i].Add(1)
		}
	}
}

func (m *Metrics) recordQueueDepth(depth uint64) {
	m.QueueDepthTotal.Add(depth)
	m.QueueDepthCount.Add(1)
	for {
		cur := m.MaxQueueDepth.Load()
		if depth <= cur {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(cur, depth) {
			break
		}
	}
}

// Stop marks the domain as shut down, fixing the uptime window used
// by Snapshot.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics' counters plus a
// few derived statistics.
type MetricsSnapshot struct {
	TotalDeferred    uint64
	TotalDrained     uint64
	TotalSelfDrains  uint64
	TotalWakes       uint64
	BarrierPasses    uint64
	GracePeriodWaits uint64

	AvgQueueDepth float64
	MaxQueueDepth uint64

	AvgGracePeriodLatencyNs uint64
	GracePeriodLatencyP50Ns uint64
	GracePeriodLatencyP99Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64
	UptimeNs         uint64
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		TotalDeferred:    m.TotalDeferred.Load(),
		TotalDrained:     m.TotalDrained.Load(),
		TotalSelfDrains:  m.TotalSelfDrains.Load(),
		TotalWakes:       m.TotalWakes.Load(),
		BarrierPasses:    m.BarrierPasses.Load(),
		GracePeriodWaits: m.GracePeriodWaits.Load(),
		MaxQueueDepth:    m.MaxQueueDepth.Load(),
	}

	if qc := m.QueueDepthCount.Load(); qc > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(qc)
	}
	if gw := snap.GracePeriodWaits; gw > 0 {
		snap.AvgGracePeriodLatencyNs = m.TotalGracePeriodLatencyNs.Load() / gw
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.GracePeriodLatencyBuckets[i].Load()
	}
	if snap.GracePeriodWaits > 0 {
		snap.GracePeriodLatencyP50Ns = m.percentile(0.50)
		snap.GracePeriodLatencyP99Ns = m.percentile(0.99)
	}

	return snap
}

// percentile estimates the grace-period latency at the given
// percentile (0.0-1.0) by linear interpolation between histogram
// buckets, identical in shape to the teacher's I/O-latency estimator.
func (m *Metrics) percentile(p float64) uint64 {
	total := m.GracePeriodWaits.Load()
	if total == 0 {
		return 0
	}
	target := uint64(float64(total) * p)
	prevBucket, prevCount := uint64(0), uint64(0)
	for i, bucket := range LatencyBuckets {
		count := m.GracePeriodLatencyBuckets[i].Load()
		if count >= target {
			if count == prevCount {
				return bucket
			}
			frac := float64(target-prevCount) / float64(count-prevCount)
			return prevBucket + uint64(frac*float64(bucket-prevBucket))
		}
		prevBucket, prevCount = bucket, count
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// metricsObserver adapts Metrics to the internal interfaces.Observer
// collaborator interface so internal packages never import the root
// package.
type metricsObserver struct {
	m *Metrics
}

func (o *metricsObserver) ObserveDeferred(slots int) {
	o.m.TotalDeferred.Add(1)
}

// ObserveSelfDrain marks a Defer call that had to drain its own queue
// before appending. drained is purely informational (call-site
// logging); the drained count itself is already folded into
// TotalDrained by the ObserveDrained call the underlying
// reclaim.BarrierThread pass makes, so it must not be added again here.
func (o *metricsObserver) ObserveSelfDrain(drained int) {
	o.m.TotalSelfDrains.Add(1)
}

func (o *metricsObserver) ObserveWake() {
	o.m.TotalWakes.Add(1)
}

func (o *metricsObserver) ObserveBarrierPass(pending uint64, waited bool, latency time.Duration) {
	o.m.BarrierPasses.Add(1)
	if waited {
		o.m.recordGracePeriodLatency(latency)
	}
}

func (o *metricsObserver) ObserveDrained(thread uint64, count int) {
	o.m.TotalDrained.Add(uint64(count))
}

func (o *metricsObserver) ObserveQueueDepth(depth uint64) {
	o.m.recordQueueDepth(depth)
}
