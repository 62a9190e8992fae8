package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/omniture/internal/rate"
	"github.com/wesleyorama2/omniture/internal/stats"
	"github.com/wesleyorama2/omniture/pkg/omniture"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
	// FormatCSV outputs report data as comma-separated values
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format '%s'", name)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatList(list ListData) string
	FormatReport(report ReportData) string
	FormatStats(data StatsData) string
	FormatRaw(body gjson.Result) string
}

// ItemData is one entry of a suite or metadata listing
type ItemData struct {
	Title string `json:"title" yaml:"title"`
	ID    string `json:"id" yaml:"id"`
}

// ListData is a named listing such as a suite's metrics
type ListData struct {
	Name  string     `json:"name" yaml:"name"`
	Items []ItemData `json:"items" yaml:"items"`
}

// NewListData converts a collection for display
func NewListData[T omniture.Item](c *omniture.Collection[T]) ListData {
	data := ListData{Name: c.Name(), Items: make([]ItemData, 0, c.Len())}
	for _, item := range c.All() {
		data.Items = append(data.Items, ItemData{Title: item.Title(), ID: item.ID()})
	}
	return data
}

// ColumnData holds one metric column of a report
type ColumnData struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Values []any  `json:"values" yaml:"values"`
}

// TimingData is the server-side timing of a report, in seconds
type TimingData struct {
	Queue     float64 `json:"queueSeconds" yaml:"queueSeconds"`
	Execution float64 `json:"executionSeconds" yaml:"executionSeconds"`
}

// ReportData represents the structured data of a completed report
type ReportData struct {
	ReportID string       `json:"reportId" yaml:"reportId"`
	Suite    string       `json:"suite" yaml:"suite"`
	Status   string       `json:"status" yaml:"status"`
	Period   string       `json:"period,omitempty" yaml:"period,omitempty"`
	Segment  *ItemData    `json:"segment,omitempty" yaml:"segment,omitempty"`
	Elements []ItemData   `json:"elements,omitempty" yaml:"elements,omitempty"`
	Timing   TimingData   `json:"timing" yaml:"timing"`
	Rows     []string     `json:"rows" yaml:"rows"`
	Columns  []ColumnData `json:"columns" yaml:"columns"`
}

// NewReportData converts a report for display. Row labels come from the
// name of each data row.
func NewReportData(r *omniture.Report) ReportData {
	data := ReportData{
		Status:   r.Status,
		Period:   r.Period.String(),
		Elements: NewListData(r.Elements).Items,
		Timing:   TimingData{Queue: r.Timing.Queue, Execution: r.Timing.Execution},
		Rows:     []string{},
		Columns:  make([]ColumnData, 0, r.Data.Len()),
	}

	if q := r.Query(); q != nil {
		data.ReportID = q.ID()
		data.Suite = q.Suite().ID()
	}
	if r.Segment != nil {
		data.Segment = &ItemData{Title: r.Segment.Title(), ID: r.Segment.ID()}
	}

	for _, name := range r.Raw.Get("report.data.#.name").Array() {
		data.Rows = append(data.Rows, name.String())
	}
	for _, col := range r.Data.All() {
		data.Columns = append(data.Columns, ColumnData{ID: col.ID(), Title: col.Title(), Values: col.Values})
	}

	return data
}

// StatsData is a latency summary in milliseconds
type StatsData struct {
	Requests int64       `json:"requests" yaml:"requests"`
	Failures int64       `json:"failures" yaml:"failures"`
	Min      float64     `json:"minMs" yaml:"minMs"`
	Mean     float64     `json:"meanMs" yaml:"meanMs"`
	P50      float64     `json:"p50Ms" yaml:"p50Ms"`
	P95      float64     `json:"p95Ms" yaml:"p95Ms"`
	P99      float64     `json:"p99Ms" yaml:"p99Ms"`
	Max      float64     `json:"maxMs" yaml:"maxMs"`
	Pacing   *PacingData `json:"pacing,omitempty" yaml:"pacing,omitempty"`
}

// PacingData describes how a rate limit delayed API calls
type PacingData struct {
	RateLimit float64 `json:"rateLimit" yaml:"rateLimit"`
	Calls     int64   `json:"calls" yaml:"calls"`
	Waited    float64 `json:"waitedMs" yaml:"waitedMs"`
}

// NewStatsData converts a latency summary for display. pacing is nil when
// calls were not rate limited.
func NewStatsData(s stats.Summary, pacing *rate.Stats) StatsData {
	data := StatsData{
		Requests: s.Count,
		Failures: s.Failures,
		Min:      millis(s.Min),
		Mean:     millis(s.Mean),
		P50:      millis(s.P50),
		P95:      millis(s.P95),
		P99:      millis(s.P99),
		Max:      millis(s.Max),
	}
	if pacing != nil {
		data.Pacing = &PacingData{
			RateLimit: pacing.Rate,
			Calls:     pacing.Calls,
			Waited:    millis(pacing.Waited),
		}
	}
	return data
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) marshal(v any) string {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal output: %s"}`, err)
	}

	return string(output) + "\n"
}

// FormatList formats a listing as JSON
func (f *JSONFormatter) FormatList(list ListData) string { return f.marshal(list) }

// FormatReport formats a report as JSON
func (f *JSONFormatter) FormatReport(report ReportData) string { return f.marshal(report) }

// FormatStats formats a latency summary as JSON
func (f *JSONFormatter) FormatStats(data StatsData) string { return f.marshal(data) }

// FormatRaw writes the body unchanged apart from indentation
func (f *JSONFormatter) FormatRaw(body gjson.Result) string {
	if !f.Pretty {
		return body.Raw + "\n"
	}
	return indentJSON(body.Raw)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) marshal(v any) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: Failed to marshal output: %s\n", err)
	}
	return string(output)
}

// FormatList formats a listing as YAML
func (f *YAMLFormatter) FormatList(list ListData) string { return f.marshal(list) }

// FormatReport formats a report as YAML
func (f *YAMLFormatter) FormatReport(report ReportData) string { return f.marshal(report) }

// FormatStats formats a latency summary as YAML
func (f *YAMLFormatter) FormatStats(data StatsData) string { return f.marshal(data) }

// FormatRaw converts a JSON body to YAML
func (f *YAMLFormatter) FormatRaw(body gjson.Result) string {
	return f.marshal(body.Value())
}

// CSVFormatter formats output as comma-separated values with a header row
type CSVFormatter struct{}

func (f *CSVFormatter) write(records [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return fmt.Sprintf("error: %s\n", err)
	}
	return buf.String()
}

// FormatList writes one title,id record per item
func (f *CSVFormatter) FormatList(list ListData) string {
	records := [][]string{{"title", "id"}}
	for _, item := range list.Items {
		records = append(records, []string{item.Title, item.ID})
	}
	return f.write(records)
}

// FormatReport writes one record per data row, labelled by the row name
func (f *CSVFormatter) FormatReport(report ReportData) string {
	header := []string{"name"}
	for _, col := range report.Columns {
		header = append(header, col.ID)
	}
	records := [][]string{header}

	for i, row := range report.Rows {
		record := []string{row}
		for _, col := range report.Columns {
			record = append(record, cell(col.Values, i))
		}
		records = append(records, record)
	}
	return f.write(records)
}

// FormatStats writes a single metric,value table
func (f *CSVFormatter) FormatStats(s StatsData) string {
	records := [][]string{
		{"metric", "value"},
		{"requests", strconv.FormatInt(s.Requests, 10)},
		{"failures", strconv.FormatInt(s.Failures, 10)},
		{"min_ms", formatFloat(s.Min)},
		{"mean_ms", formatFloat(s.Mean)},
		{"p50_ms", formatFloat(s.P50)},
		{"p95_ms", formatFloat(s.P95)},
		{"p99_ms", formatFloat(s.P99)},
		{"max_ms", formatFloat(s.Max)},
	}
	if p := s.Pacing; p != nil {
		records = append(records,
			[]string{"rate_limit", formatFloat(p.RateLimit)},
			[]string{"paced_calls", strconv.FormatInt(p.Calls, 10)},
			[]string{"waited_ms", formatFloat(p.Waited)},
		)
	}
	return f.write(records)
}

// FormatRaw has no tabular form and falls back to compact JSON
func (f *CSVFormatter) FormatRaw(body gjson.Result) string {
	return body.Raw + "\n"
}

func cell(values []any, i int) string {
	if i >= len(values) {
		return ""
	}
	switch v := values[i].(type) {
	case float64:
		return formatFloat(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return NewFormatter(verbose, noColor)
	}
}
