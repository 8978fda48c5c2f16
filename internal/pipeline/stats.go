package pipeline

import (
	"sort"
	"sync"
	"time"
)

// Stage names recorded by Run.
const (
	StageAnalyze  = "analyze"
	StageExtract  = "extract"
	StageTag      = "tag"
	StageLink     = "link"
	StageAssemble = "assemble"
	StagePublish  = "publish"
	StageTotal    = "total"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats tracks recent per-stage latencies within a rolling window.
// A nil *LatencyStats ignores records.
type LatencyStats struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples: make(map[string][]sample),
		maxAge:  maxAge,
	}
}

// Record adds one sample for stage.
func (s *LatencyStats) Record(stage string, durationMs int64) {
	if s == nil {
		return
	}
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(stage, now)
	s.samples[stage] = append(s.samples[stage], sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

// Since records the time elapsed since start.
func (s *LatencyStats) Since(stage string, start time.Time) {
	s.Record(stage, time.Since(start).Milliseconds())
}

// Snapshot aggregates every stage that still has samples.
func (s *LatencyStats) Snapshot() map[string]StatsSnapshot {
	out := make(map[string]StatsSnapshot)
	if s == nil {
		return out
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for stage := range s.samples {
		s.pruneLocked(stage, now)
		if snap := aggregate(s.samples[stage]); snap.Count > 0 {
			out[stage] = snap
		}
	}
	return out
}

func aggregate(samples []sample) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}
	values := make([]int64, 0, len(samples))
	var sum int64
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(stage string, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	kept := s.samples[stage][:0]
	for _, sm := range s.samples[stage] {
		if !sm.timestamp.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples[stage] = kept
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
