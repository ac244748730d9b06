package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStats(window time.Duration) (*Stats, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStats(window)
	s.now = clock.now
	return s, clock
}

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Record("cloud", time.Duration(ms)*time.Millisecond, false)
	}

	snap, ok := stats.Snapshot()["cloud"]
	if !ok {
		t.Fatal("expected cloud snapshot")
	}
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
}

func TestStatsKeysAreIndependent(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	stats.Record("cloud", 10*time.Millisecond, false)
	stats.Record("local", 20*time.Millisecond, true)
	stats.Record("local", 40*time.Millisecond, false)

	snap := stats.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(snap))
	}
	if snap["local"].Count != 2 || snap["local"].Errors != 1 {
		t.Fatalf("expected local count=2 errors=1, got %+v", snap["local"])
	}
	if snap["cloud"].Errors != 0 {
		t.Fatalf("expected no cloud errors, got %d", snap["cloud"].Errors)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats, clock := newTestStats(time.Minute)
	stats.Record("local", 100*time.Millisecond, false)
	clock.t = clock.t.Add(2 * time.Minute)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record("local", 200*time.Millisecond, false)
	snap := stats.Snapshot()["local"]
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got %+v", snap)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	stats.Record("cloud", -10*time.Millisecond, false)
	snap := stats.Snapshot()["cloud"]
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestTimedRecordsOutcome(t *testing.T) {
	stats, _ := newTestStats(time.Hour)

	m := new(MockProvider)
	m.On("Generate", mock.Anything, "m1", "ok?").Return("fine", nil)
	m.On("Generate", mock.Anything, "m1", "fail?").Return("", errors.New("boom"))

	p := Timed(m, "cloud", stats)
	if out, err := p.Generate(context.Background(), "m1", "ok?"); err != nil || out != "fine" {
		t.Fatalf("expected passthrough result, got %q, %v", out, err)
	}
	if _, err := p.Generate(context.Background(), "m1", "fail?"); err == nil {
		t.Fatal("expected passthrough error")
	}

	snap := stats.Snapshot()["cloud"]
	if snap.Count != 2 || snap.Errors != 1 {
		t.Fatalf("expected count=2 errors=1, got %+v", snap)
	}
	m.AssertExpectations(t)
}
