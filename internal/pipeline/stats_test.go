package pipeline

import (
	"testing"
	"time"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(StageTag, ms)
	}
	stats.Record(StageLink, 7)

	all := stats.Snapshot()
	if len(all) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(all))
	}
	snap := all[StageTag]
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if all[StageLink].Count != 1 || all[StageLink].P50Ms != 7 {
		t.Fatalf("unexpected link stage snapshot: %+v", all[StageLink])
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(10 * time.Millisecond)
	stats.Record(StageAnalyze, 100)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected no stages after prune, got %v", snap)
	}

	stats.Record(StageAnalyze, 200)
	snap := stats.Snapshot()[StageAnalyze]
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLatencyStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(StageTotal, -10)
	snap := stats.Snapshot()[StageTotal]
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLatencyStatsNilIsNoop(t *testing.T) {
	var stats *LatencyStats
	stats.Record(StageTag, 5)
	stats.Since(StageTag, time.Now())
	if len(stats.Snapshot()) != 0 {
		t.Fatal("expected empty snapshot from nil stats")
	}
}
