package omniture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// State is the lifecycle state of a Query.
type State int

const (
	StateUnqueued State = iota
	StateQueued
	StatePollingStatus
	StateStatusReady
	StatePollingReport
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateUnqueued:
		return "unqueued"
	case StateQueued:
		return "queued"
	case StatePollingStatus:
		return "polling-status"
	case StateStatusReady:
		return "status-ready"
	case StatePollingReport:
		return "polling-report"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultInterval is the pause before each poll.
const DefaultInterval = time.Second

// Fetcher returns one status snapshot of a report.
type Fetcher func(ctx context.Context) (gjson.Result, error)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type pollConfig struct {
	heartbeat func()
	interval  time.Duration
	maxWait   time.Duration
	sleep     Sleeper
}

// PollOption configures Probe and Sync.
type PollOption func(*pollConfig)

// WithHeartbeat calls fn before every poll.
func WithHeartbeat(fn func()) PollOption {
	return func(c *pollConfig) {
		c.heartbeat = fn
	}
}

// WithInterval sets the pause before each poll.
func WithInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxWait bounds the total time spent polling. Zero, the default,
// polls until the report completes or ctx is done.
func WithMaxWait(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.maxWait = d
	}
}

// WithSleeper replaces the pause between polls.
func WithSleeper(s Sleeper) PollOption {
	return func(c *pollConfig) {
		c.sleep = s
	}
}

func newPollConfig(opts []PollOption) pollConfig {
	cfg := pollConfig{
		interval: DefaultInterval,
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c pollConfig) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.maxWait > 0 {
		return context.WithTimeout(ctx, c.maxWait)
	}
	return context.WithCancel(ctx)
}

// isReady reports whether a snapshot's status marks the report as finished.
func isReady(snapshot gjson.Result) bool {
	switch snapshot.Get("status").String() {
	case "done", "ready":
		return true
	}
	return false
}

// Probe calls fetch until the snapshot's status is "done" or "ready" and
// returns that snapshot. Each round runs the heartbeat, sleeps for the
// interval and then fetches. Fetch errors end the loop; there is no
// backoff and, unless WithMaxWait is given, no time limit.
func Probe(ctx context.Context, fetch Fetcher, opts ...PollOption) (gjson.Result, error) {
	cfg := newPollConfig(opts)
	ctx, cancel := cfg.withDeadline(ctx)
	defer cancel()
	return probe(ctx, fetch, cfg)
}

func probe(ctx context.Context, fetch Fetcher, cfg pollConfig) (gjson.Result, error) {
	logger := zerolog.Ctx(ctx)

	for attempt := 1; ; attempt++ {
		if cfg.heartbeat != nil {
			cfg.heartbeat()
		}
		if err := cfg.sleep(ctx, cfg.interval); err != nil {
			return gjson.Result{}, err
		}

		snapshot, err := fetch(ctx)
		if err != nil {
			return gjson.Result{}, err
		}

		logger.Debug().
			Int("attempt", attempt).
			Str("status", snapshot.Get("status").String()).
			Msg("Polled report")

		if isReady(snapshot) {
			return snapshot, nil
		}
	}
}

// Sync queues the query if needed, waits for it and returns the report.
//
// The status endpoint is polled until it reports the report ready, then the
// report endpoint is polled until the body itself is ready. The API can
// announce a report as ready before its data is retrievable, so the second
// round always runs.
func (q *Query) Sync(ctx context.Context, opts ...PollOption) (*Report, error) {
	if q.id == "" {
		if err := q.Queue(ctx); err != nil {
			return nil, err
		}
	}

	cfg := newPollConfig(opts)
	ctx, cancel := cfg.withDeadline(ctx)
	defer cancel()

	ctx = zerolog.Ctx(ctx).With().Str("report_id", q.id).Logger().WithContext(ctx)
	params := map[string]any{"reportID": q.reportID}

	status := func(ctx context.Context) (gjson.Result, error) {
		return q.suite.Request(ctx, "Report", "GetStatus", params)
	}
	report := func(ctx context.Context) (gjson.Result, error) {
		return q.suite.Request(ctx, "Report", "GetReport", params)
	}

	q.setState(ctx, StatePollingStatus)
	if _, err := probe(ctx, status, cfg); err != nil {
		return nil, fmt.Errorf("report %s: %w", q.id, err)
	}
	q.setState(ctx, StateStatusReady)

	q.setState(ctx, StatePollingReport)
	raw, err := probe(ctx, report, cfg)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", q.id, err)
	}

	r, err := NewReport(ctx, raw, q)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", q.id, err)
	}
	q.setState(ctx, StateComplete)

	return r, nil
}

// Async is not supported. The query is still queued first, so callers can
// fall back to Sync.
func (q *Query) Async(ctx context.Context, callback func(*Report, error), opts ...PollOption) error {
	if q.id == "" {
		if err := q.Queue(ctx); err != nil {
			return err
		}
	}
	return fmt.Errorf("async report retrieval: %w", ErrNotImplemented)
}

// Sync queues every query before waiting on any of them, so the reports run
// concurrently on the server, then resolves them one at a time in order.
func Sync(ctx context.Context, queries []*Query, opts ...PollOption) ([]*Report, error) {
	for _, q := range queries {
		if err := q.Queue(ctx); err != nil {
			return nil, err
		}
	}

	reports := make([]*Report, 0, len(queries))
	for _, q := range queries {
		r, err := q.Sync(ctx, opts...)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
