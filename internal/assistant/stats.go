package assistant

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds memory regardless of traffic; oldest samples roll off.
const maxSamples = 512

// StatsSnapshot summarizes recent assistant call latencies.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Errors   int64   `json:"errors"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	WindowMs int64   `json:"window_ms"`
}

type latencySample struct {
	at time.Time
	ms int64
}

// LLMStats keeps a bounded rolling window of model call latencies and a
// running error count.
type LLMStats struct {
	mu     sync.Mutex
	ring   []latencySample
	window time.Duration
	errors int64
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window}
}

// Record adds one latency sample in milliseconds.
func (s *LLMStats) Record(ms int64) {
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	s.ring = append(s.ring, latencySample{at: now, ms: ms})
	if len(s.ring) > maxSamples {
		s.ring = s.ring[len(s.ring)-maxSamples:]
	}
}

// RecordError bumps the failure counter.
func (s *LLMStats) RecordError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

// Snapshot aggregates the current window.
func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)

	snap := StatsSnapshot{
		Errors:   s.errors,
		WindowMs: s.window.Milliseconds(),
	}
	if len(s.ring) == 0 {
		return snap
	}

	sorted := make([]int64, len(s.ring))
	var sum int64
	for i, smp := range s.ring {
		sorted[i] = smp.ms
		sum += smp.ms
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	snap.Count = len(sorted)
	snap.MinMs = sorted[0]
	snap.MaxMs = sorted[len(sorted)-1]
	snap.AvgMs = float64(sum) / float64(len(sorted))
	snap.P50Ms = percentile(sorted, 50)
	snap.P95Ms = percentile(sorted, 95)
	return snap
}

// evictLocked drops samples older than the window. Samples are appended in
// time order, so the survivors are a suffix.
func (s *LLMStats) evictLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	first := len(s.ring)
	for i, smp := range s.ring {
		if !smp.at.Before(cutoff) {
			first = i
			break
		}
	}
	s.ring = s.ring[first:]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * pct / 100
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac
}
