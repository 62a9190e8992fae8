// Package rate paces outgoing API calls.
package rate

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces calls evenly at a fixed rate using a leaky bucket: instead
// of counting available tokens it tracks when the next call may start.
// Calls that arrive late run immediately; idle time is never saved up
// beyond a single call, so there are no bursts.
//
// Pacer is safe for concurrent use.
type Pacer struct {
	mu       sync.Mutex
	rate     float64
	interval time.Duration
	next     time.Time
	now      func() time.Time
	calls    int64
	waited   time.Duration
}

// Stats describes the calls paced so far.
type Stats struct {
	Rate   float64       `json:"rate" yaml:"rate"`
	Calls  int64         `json:"calls" yaml:"calls"`
	Waited time.Duration `json:"waited" yaml:"waited"`
}

// NewPacer creates a pacer allowing perSecond calls per second. Rates of
// zero or less are treated as one call per second.
func NewPacer(perSecond float64) *Pacer {
	if perSecond <= 0 {
		perSecond = 1.0
	}
	return &Pacer{
		rate:     perSecond,
		interval: time.Duration(float64(time.Second) / perSecond),
		now:      time.Now,
	}
}

// Reserve claims the next slot and returns when it starts. The time may be
// in the past, meaning the call can run immediately.
func (p *Pacer) Reserve() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	start := p.next
	if start.Before(now) {
		start = now
	}
	p.next = start.Add(p.interval)

	p.calls++
	p.waited += start.Sub(now)

	return start
}

// Wait blocks until the caller's slot starts or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := time.Until(p.Reserve())
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns a snapshot of the pacer's counters.
func (p *Pacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Rate: p.rate, Calls: p.calls, Waited: p.waited}
}
