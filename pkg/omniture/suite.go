package omniture

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// cached holds a value computed at most once. A failed computation is not
// stored, so the next call retries it.
type cached[T any] struct {
	mu    sync.Mutex
	value T
	done  bool
}

func (c *cached[T]) get(compute func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return c.value, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.value, c.done = v, true
	return v, nil
}

// metadataList describes one ReportSuite metadata endpoint.
type metadataList struct {
	name       string
	method     string
	listField  string
	titleField string
	idField    string
}

var (
	metricsList  = metadataList{"metrics", "GetAvailableMetrics", "available_metrics", "display_name", "metric_name"}
	elementsList = metadataList{"elements", "GetAvailableElements", "available_elements", "display_name", "element_name"}
	evarsList    = metadataList{"evars", "GetEVars", "evars", "name", "evar_num"}
	segmentsList = metadataList{"segments", "GetSegments", "sc_segments", "name", "id"}
)

// Suite is a report suite: one analytics property. Every request made
// through a Suite is scoped to it.
type Suite struct {
	title   string
	id      string
	account Requester

	metrics  cached[*Collection[*Value]]
	elements cached[*Collection[*Value]]
	evars    cached[*Collection[*Value]]
	segments cached[*Collection[*Value]]
}

// NewSuite creates a handle for report suite id routed through account.
func NewSuite(title, id string, account Requester) *Suite {
	return &Suite{title: title, id: id, account: account}
}

// Title returns the suite's site title.
func (s *Suite) Title() string { return s.title }

// ID returns the report suite id (rsid).
func (s *Suite) ID() string { return s.id }

func (s *Suite) String() string {
	return fmt.Sprintf("<%s: %s>", s.title, s.id)
}

// Request forwards a call to the account after scoping it to this suite:
// report descriptions get a reportSuiteID, other ReportSuite calls get an
// rsid_list. params itself is left untouched. A report description must be
// a map[string]any or map[string]string.
func (s *Suite) Request(ctx context.Context, api, method string, params map[string]any) (gjson.Result, error) {
	query := make(map[string]any, len(params)+1)
	maps.Copy(query, params)

	if desc, ok := query["reportDescription"]; ok {
		scoped, err := s.scope(desc)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%s.%s: %w", api, method, err)
		}
		query["reportDescription"] = scoped
	} else if api == "ReportSuite" {
		query["rsid_list"] = []string{s.id}
	}

	return s.account.Request(ctx, api, method, query)
}

// scope copies a report description and sets its reportSuiteID.
func (s *Suite) scope(desc any) (map[string]any, error) {
	var scoped map[string]any
	switch d := desc.(type) {
	case map[string]any:
		scoped = maps.Clone(d)
	case map[string]string:
		scoped = make(map[string]any, len(d)+1)
		for k, v := range d {
			scoped[k] = v
		}
	default:
		return nil, fmt.Errorf("reportDescription is %T, not an object: %w", desc, ErrInvalidParams)
	}
	if scoped == nil {
		scoped = make(map[string]any, 1)
	}
	scoped["reportSuiteID"] = s.id
	return scoped, nil
}

// Metrics returns the metrics available in this suite.
func (s *Suite) Metrics(ctx context.Context) (*Collection[*Value], error) {
	return s.metadata(ctx, &s.metrics, metricsList)
}

// Elements returns the elements available in this suite.
func (s *Suite) Elements(ctx context.Context) (*Collection[*Value], error) {
	return s.metadata(ctx, &s.elements, elementsList)
}

// EVars returns the conversion variables configured for this suite.
func (s *Suite) EVars(ctx context.Context) (*Collection[*Value], error) {
	return s.metadata(ctx, &s.evars, evarsList)
}

// Segments returns the segments defined for this suite.
func (s *Suite) Segments(ctx context.Context) (*Collection[*Value], error) {
	return s.metadata(ctx, &s.segments, segmentsList)
}

func (s *Suite) metadata(ctx context.Context, c *cached[*Collection[*Value]], l metadataList) (*Collection[*Value], error) {
	return c.get(func() (*Collection[*Value], error) {
		data, err := s.Request(ctx, "ReportSuite", l.method, nil)
		if err != nil {
			return nil, err
		}

		list := data.Get("0." + l.listField)
		if !list.IsArray() {
			return nil, fmt.Errorf("ReportSuite.%s: %s: %w", l.method, l.listField, ErrMalformedResponse)
		}

		zerolog.Ctx(ctx).Debug().
			Str("suite", s.id).
			Str("list", l.name).
			Int("count", len(list.Array())).
			Msg("Fetched suite metadata")

		return NewValueList(l.name, list, l.titleField, l.idField), nil
	})
}

// Report starts a new report query against this suite.
func (s *Suite) Report() *Query {
	return newQuery(s)
}
