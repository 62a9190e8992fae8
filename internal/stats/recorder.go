// Package stats aggregates API call latencies in an HDR histogram.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin     = 1          // 1 microsecond
	histogramMax     = 3600000000 // 1 hour in microseconds
	histogramSigFigs = 3
)

// Recorder collects request latencies. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	failures int64
}

// Summary is a point-in-time view of the recorded latencies.
type Summary struct {
	Count    int64         `json:"count" yaml:"count"`
	Failures int64         `json:"failures" yaml:"failures"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P95      time.Duration `json:"p95" yaml:"p95"`
	P99      time.Duration `json:"p99" yaml:"p99"`
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Record adds one request duration. Values outside the histogram range are
// clamped so a slow call is never dropped.
func (r *Recorder) Record(d time.Duration, failed bool) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	// RecordValue is not thread-safe.
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(micros)
	if failed {
		r.failures++
	}
}

// Summary returns the current aggregates.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hist.TotalCount() == 0 {
		return Summary{Failures: r.failures}
	}

	return Summary{
		Count:    r.hist.TotalCount(),
		Failures: r.failures,
		Min:      time.Duration(r.hist.Min()) * time.Microsecond,
		Max:      time.Duration(r.hist.Max()) * time.Microsecond,
		Mean:     time.Duration(r.hist.Mean()) * time.Microsecond,
		P50:      time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(r.hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
	}
}
