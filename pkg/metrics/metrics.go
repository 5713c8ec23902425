// Package metrics records per-tick capture latency as an HDR histogram, the
// basis for the status verb's p50/p90/p99 readout (§4.7).
package metrics

import (
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minValue = int64(time.Microsecond)
	maxValue = int64(time.Hour)
	sigFigs  = 3
)

// Recorder wraps a single HDR histogram with a mutex: the supervisor loop
// records from one goroutine but a status request may read a snapshot
// concurrently.
type Recorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewRecorder returns a Recorder covering [1µs, 1h] at 3 significant figures.
func NewRecorder() *Recorder {
	return &Recorder{hist: hdrhistogram.New(minValue, maxValue, sigFigs)}
}

// Record adds one tick's elapsed duration to the histogram. Durations
// outside [1µs, 1h] are clamped rather than dropped, since an out-of-range
// tick is still meaningful evidence that something is very wrong.
func (r *Recorder) Record(d time.Duration) {
	v := int64(d)
	if v < minValue {
		v = minValue
	}
	if v > maxValue {
		v = maxValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(v)
}

// Snapshot is a point-in-time read of the histogram.
type Snapshot struct {
	Count int64
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Snapshot returns the current distribution. Safe to call concurrently
// with Record.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Count: r.hist.TotalCount(),
		P50:   time.Duration(r.hist.ValueAtQuantile(50)),
		P90:   time.Duration(r.hist.ValueAtQuantile(90)),
		P99:   time.Duration(r.hist.ValueAtQuantile(99)),
		Max:   time.Duration(r.hist.Max()),
	}
}
