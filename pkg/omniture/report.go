package omniture

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/omniture/internal/schema"
)

// Timing is how long a report waited in the queue and how long it ran, in
// seconds.
type Timing struct {
	Queue     float64 `json:"queue" yaml:"queue"`
	Execution float64 `json:"execution" yaml:"execution"`
}

// Column holds the per-row values of one metric. Values are float64 for
// numeric metrics and strings otherwise.
type Column struct {
	Metric *Value
	Values []any
}

// Title returns the metric name.
func (c *Column) Title() string { return c.Metric.Title() }

// ID returns the metric id.
func (c *Column) ID() string { return c.Metric.ID() }

// Floats returns the values as float64. ok is false when the column holds
// non-numeric values.
func (c *Column) Floats() (values []float64, ok bool) {
	values = make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		f, isFloat := v.(float64)
		if !isFloat {
			return nil, false
		}
		values = append(values, f)
	}
	return values, true
}

// Report is a completed report. It is immutable once built.
type Report struct {
	Status   string
	Timing   Timing
	Metrics  *Collection[*Value]
	Elements *Collection[*Value]
	Period   gjson.Result
	// Segment is nil when no segment was applied.
	Segment *Value
	Data    *Collection[*Column]
	Raw     gjson.Result

	query *Query
}

// Query returns the query that produced the report.
func (r *Report) Query() *Query { return r.query }

// NewReport materializes a completed Report.GetReport payload. q supplies
// the suite used to resolve the report's segment.
func NewReport(ctx context.Context, raw gjson.Result, q *Query) (*Report, error) {
	if err := schema.ValidateReport(raw.Raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	queueTime, err := seconds(raw.Get("waitSeconds"))
	if err != nil {
		return nil, fmt.Errorf("waitSeconds: %w", err)
	}
	runTime, err := seconds(raw.Get("runSeconds"))
	if err != nil {
		return nil, fmt.Errorf("runSeconds: %w", err)
	}

	body := raw.Get("report")
	r := &Report{
		Status:   raw.Get("status").String(),
		Timing:   Timing{Queue: queueTime, Execution: runTime},
		Metrics:  NewValueList("metrics", body.Get("metrics"), "name", "id"),
		Elements: NewValueList("elements", body.Get("elements"), "name", "id"),
		Period:   body.Get("period"),
		Raw:      raw,
		query:    q,
	}

	if segment := body.Get("segment_id").String(); segment != "" {
		if q == nil {
			return nil, fmt.Errorf("segment %s: no query to resolve it against", segment)
		}
		segments, err := q.Suite().Segments(ctx)
		if err != nil {
			return nil, err
		}
		if r.Segment, err = segments.Get(segment); err != nil {
			return nil, err
		}
	}

	if r.Data, err = columns(r.Metrics, body.Get("data")); err != nil {
		return nil, err
	}

	return r, nil
}

// columns transposes the report rows: count i of every row belongs to
// metric i. Every row must carry one count per metric so that value j of
// each column stays row j.
func columns(metrics *Collection[*Value], rows gjson.Result) (*Collection[*Column], error) {
	cols := make([]*Column, metrics.Len())
	numeric := make([]bool, metrics.Len())
	for i, m := range metrics.All() {
		cols[i] = &Column{Metric: m, Values: []any{}}
		numeric[i] = m.Field("type").String() == "number"
	}

	var err error
	rows.ForEach(func(rowIdx, row gjson.Result) bool {
		counts := row.Get("counts").Array()
		if len(counts) != len(cols) {
			err = fmt.Errorf("row %d has %d counts for %d metrics: %w", rowIdx.Int(), len(counts), len(cols), ErrMalformedResponse)
			return false
		}

		for i, count := range counts {
			if !numeric[i] {
				cols[i].Values = append(cols[i].Values, count.String())
				continue
			}
			f, perr := strconv.ParseFloat(count.String(), 64)
			if perr != nil {
				err = fmt.Errorf("row %d, metric %s: %w", rowIdx.Int(), cols[i].ID(), perr)
				return false
			}
			cols[i].Values = append(cols[i].Values, f)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return NewCollection("data", cols), nil
}

func seconds(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", v.Str, ErrMalformedResponse)
		}
		return f, nil
	default:
		return 0, ErrMalformedResponse
	}
}
