package provider

import (
	"context"
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// Snapshot aggregates the recent calls made under one key.
type Snapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Stats keeps per-key call latencies inside a rolling window.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples map[string][]sample
	now     func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		window:  window,
		samples: make(map[string][]sample),
		now:     time.Now,
	}
}

// Record adds one call. Negative durations count as zero.
func (s *Stats) Record(key string, d time.Duration, failed bool) {
	d = max(d, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.samples[key] = append(s.prune(s.samples[key], now), sample{at: now, duration: d, failed: failed})
}

// Snapshot returns an aggregate per key with at least one live sample.
func (s *Stats) Snapshot() map[string]Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make(map[string]Snapshot, len(s.samples))
	for key, samples := range s.samples {
		samples = s.prune(samples, now)
		if len(samples) == 0 {
			delete(s.samples, key)
			continue
		}
		s.samples[key] = samples
		out[key] = aggregate(samples)
	}
	return out
}

func (s *Stats) prune(samples []sample, now time.Time) []sample {
	cutoff := now.Add(-s.window)
	keep := samples[:0]
	for _, sm := range samples {
		if !sm.at.Before(cutoff) {
			keep = append(keep, sm)
		}
	}
	return keep
}

func aggregate(samples []sample) Snapshot {
	values := make([]int64, 0, len(samples))
	var sum int64
	errs := 0
	for _, sm := range samples {
		ms := sm.duration.Milliseconds()
		values = append(values, ms)
		sum += ms
		if sm.failed {
			errs++
		}
	}
	slices.Sort(values)

	return Snapshot{
		Count:  len(values),
		Errors: errs,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
		P99Ms:  percentile(values, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}

// Timed records the latency of every Generate call on p under key.
func Timed(p Provider, key string, stats *Stats) Provider {
	return &timed{Provider: p, key: key, stats: stats}
}

type timed struct {
	Provider
	key   string
	stats *Stats
}

func (t *timed) Generate(ctx context.Context, model, question string) (string, error) {
	start := time.Now()
	out, err := t.Provider.Generate(ctx, model, question)
	t.stats.Record(t.key, time.Since(start), err != nil)
	return out, err
}
