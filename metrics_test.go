package rcu

import (
	"testing"
	"time"
)

func TestMetrics_ObserverWiring(t *testing.T) {
	m := NewMetrics()
	obs := &metricsObserver{m: m}

	obs.ObserveDeferred(2)
	obs.ObserveDeferred(1)
	obs.ObserveWake()
	obs.ObserveBarrierPass(3, true, 5*time.Millisecond)
	obs.ObserveDrained(1, 3)
	obs.ObserveSelfDrain(4)
	obs.ObserveQueueDepth(10)
	obs.ObserveQueueDepth(20)

	snap := m.Snapshot()
	if snap.TotalDeferred != 2 {
		t.Errorf("TotalDeferred = %d, want 2", snap.TotalDeferred)
	}
	if snap.TotalWakes != 1 {
		t.Errorf("TotalWakes = %d, want 1", snap.TotalWakes)
	}
	if snap.BarrierPasses != 1 {
		t.Errorf("BarrierPasses = %d, want 1", snap.BarrierPasses)
	}
	if snap.GracePeriodWaits != 1 {
		t.Errorf("GracePeriodWaits = %d, want 1", snap.GracePeriodWaits)
	}
	if snap.TotalDrained != 3 { // ObserveSelfDrain must not double-count what ObserveDrained already recorded
		t.Errorf("TotalDrained = %d, want 3", snap.TotalDrained)
	}
	if snap.TotalSelfDrains != 1 {
		t.Errorf("TotalSelfDrains = %d, want 1", snap.TotalSelfDrains)
	}
	if snap.AvgQueueDepth != 15 {
		t.Errorf("AvgQueueDepth = %v, want 15", snap.AvgQueueDepth)
	}
	if snap.MaxQueueDepth != 20 {
		t.Errorf("MaxQueueDepth = %d, want 20", snap.MaxQueueDepth)
	}
}

func TestMetrics_BarrierPassWithoutWaitSkipsLatency(t *testing.T) {
	m := NewMetrics()
	obs := &metricsObserver{m: m}
	obs.ObserveBarrierPass(0, false, 0)

	snap := m.Snapshot()
	if snap.BarrierPasses != 1 {
		t.Errorf("BarrierPasses = %d, want 1", snap.BarrierPasses)
	}
	if snap.GracePeriodWaits != 0 {
		t.Error("expected a skipped barrier pass not to count as a grace-period wait")
	}
}

func TestMetrics_LatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics()
	m.recordGracePeriodLatency(500 * time.Microsecond) // falls in the 1ms bucket
	m.recordGracePeriodLatency(50 * time.Millisecond)   // falls in the 100ms bucket

	snap := m.Snapshot()
	var total uint64
	for _, c := range snap.LatencyHistogram {
		total += c
	}
	if total == 0 {
		t.Fatal("expected at least one histogram bucket to be incremented")
	}
	if snap.GracePeriodLatencyP50Ns == 0 {
		t.Error("expected a nonzero p50 estimate with samples present")
	}
}

func TestMetrics_StopFixesUptime(t *testing.T) {
	m := NewMetrics()
	time.Sleep(time.Millisecond)
	m.Stop()
	snap1 := m.Snapshot()
	time.Sleep(time.Millisecond)
	snap2 := m.Snapshot()
	if snap1.UptimeNs != snap2.UptimeNs {
		t.Error("expected uptime to be fixed once Stop is called")
	}
}
