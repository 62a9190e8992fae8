package omniture

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Report submission methods of the Report API.
const (
	MethodRanked   = "QueueRanked"
	MethodTrended  = "QueueTrended"
	MethodOvertime = "QueueOvertime"
)

// DefaultGranularity is used by Range when no granularity is given.
const DefaultGranularity = "day"

// Query accumulates a report description for one suite. Builder methods
// return the query so calls can be chained; the first error they hit is
// kept and returned by Build, Queue and Sync.
//
// A Query should be treated as single-use once queued.
type Query struct {
	suite    *Suite
	raw      map[string]any
	method   string
	id       string
	reportID any
	state    State
	err      error
}

func newQuery(suite *Suite) *Query {
	return &Query{
		suite: suite,
		raw:   make(map[string]any),
	}
}

// Suite returns the suite the query runs against.
func (q *Query) Suite() *Suite { return q.suite }

// ID returns the report id, or "" before the query is queued.
func (q *Query) ID() string { return q.id }

// Method returns the selected submission method.
func (q *Query) Method() string { return q.method }

// State returns the lifecycle state of the query.
func (q *Query) State() State { return q.state }

// Err returns the first error recorded by a builder method.
func (q *Query) Err() error { return q.err }

// Raw returns the accumulated report description parameters.
func (q *Query) Raw() map[string]any { return q.raw }

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// resolve turns a *Value or a lookup key into an id, using one of the
// suite's metadata collections for keys.
func (q *Query) resolve(ctx context.Context, key any, list func(context.Context) (*Collection[*Value], error)) (string, error) {
	if v, ok := key.(*Value); ok {
		return v.ID(), nil
	}

	collection, err := list(ctx)
	if err != nil {
		return "", err
	}
	v, err := collection.Lookup(key)
	if err != nil {
		return "", err
	}
	return v.ID(), nil
}

// Range sets the reporting period. An empty stop, or one equal to start,
// selects the single date start. An empty granularity means "day". Dates
// are passed through unvalidated.
func (q *Query) Range(start, stop, granularity string) *Query {
	if stop == "" {
		stop = start
	}
	if granularity == "" {
		granularity = DefaultGranularity
	}

	if start == stop {
		q.raw["date"] = start
		delete(q.raw, "dateFrom")
		delete(q.raw, "dateTo")
	} else {
		q.raw["dateFrom"] = start
		q.raw["dateTo"] = stop
		delete(q.raw, "date")
	}
	q.raw["dateGranularity"] = granularity

	return q
}

// Set sets an arbitrary report description parameter.
func (q *Query) Set(key string, value any) *Query {
	q.raw[key] = value
	return q
}

// Update merges properties into the report description.
func (q *Query) Update(properties map[string]any) *Query {
	for k, v := range properties {
		q.raw[k] = v
	}
	return q
}

// Filter applies a segment, given as a *Value or a key into the suite's
// segments. A nil or empty segment applies no filter. Element filters are
// not supported.
func (q *Query) Filter(ctx context.Context, segment, element any) *Query {
	if !blank(segment) {
		id, err := q.resolve(ctx, segment, q.suite.Segments)
		if err != nil {
			return q.fail(fmt.Errorf("segment %v: %w", segment, err))
		}
		q.raw["segment_id"] = id
	}

	if !blank(element) {
		return q.fail(fmt.Errorf("element filter: %w", ErrNotImplemented))
	}

	return q
}

// blank reports whether a filter key selects nothing.
func blank(key any) bool {
	switch k := key.(type) {
	case nil:
		return true
	case string:
		return k == ""
	case *Value:
		return k == nil
	}
	return false
}

// Ranked selects a ranked report of a single metric.
func (q *Query) Ranked(ctx context.Context, metric any) *Query {
	id, err := q.resolve(ctx, metric, q.suite.Metrics)
	if err != nil {
		return q.fail(fmt.Errorf("metric %v: %w", metric, err))
	}

	q.raw["metrics"] = []map[string]any{{"id": id}}
	q.method = MethodRanked
	return q
}

// Trended selects a trended report. Trended reports are not supported:
// the method is recorded but no parameters are set and the query fails.
func (q *Query) Trended(ctx context.Context, metric, element any) *Query {
	q.method = MethodTrended
	return q.fail(fmt.Errorf("trended report: %w", ErrNotImplemented))
}

// OverTime selects an over-time report of one or more metrics. Status and
// result handling of over-time reports has not been verified against the API.
func (q *Query) OverTime(ctx context.Context, metrics ...any) *Query {
	ids := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		id, err := q.resolve(ctx, m, q.suite.Metrics)
		if err != nil {
			return q.fail(fmt.Errorf("metric %v: %w", m, err))
		}
		ids = append(ids, map[string]any{"id": id})
	}

	zerolog.Ctx(ctx).Warn().Str("suite", q.suite.ID()).Msg("Over-time reports are only partially supported")

	q.raw["metrics"] = ids
	q.method = MethodOvertime
	return q
}

// Sort is not supported and always fails the query.
func (q *Query) Sort(facet string) *Query {
	return q.fail(fmt.Errorf("sort by %q: %w", facet, ErrNotImplemented))
}

// Build returns the request body for the submission call.
func (q *Query) Build() (map[string]any, error) {
	if q.err != nil {
		return nil, q.err
	}
	return map[string]any{"reportDescription": q.raw}, nil
}

// Cancel cancels the queued report on the server. Local state is unchanged.
func (q *Query) Cancel(ctx context.Context) error {
	if q.id == "" {
		return ErrNotQueued
	}

	resp, err := q.suite.Request(ctx, "Report", "CancelReport", map[string]any{"reportID": q.reportID})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("report_id", q.id).Str("response", resp.Raw).Msg("Canceled report")
	return nil
}

// Queue submits the query and stores the report id. Queueing an already
// queued query submits it again.
func (q *Query) Queue(ctx context.Context) error {
	body, err := q.Build()
	if err != nil {
		return err
	}
	if q.method == "" {
		return ErrNoReportType
	}

	resp, err := q.suite.Request(ctx, "Report", q.method, body)
	if err != nil {
		return err
	}

	id := resp.Get("reportID")
	if !id.Exists() || id.String() == "" {
		return fmt.Errorf("Report.%s: reportID: %w", q.method, ErrMalformedResponse)
	}

	q.id = id.String()
	q.reportID = id.Value()
	q.setState(ctx, StateQueued)
	return nil
}

func (q *Query) setState(ctx context.Context, s State) {
	q.state = s
	zerolog.Ctx(ctx).Debug().Str("report_id", q.id).Stringer("state", s).Msg("Report state changed")
}
