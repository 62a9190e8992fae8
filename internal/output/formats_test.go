package output

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/omniture/internal/rate"
	"github.com/wesleyorama2/omniture/internal/stats"
	"github.com/wesleyorama2/omniture/pkg/omniture"
)

const reportBody = `{
	"status": "done",
	"waitSeconds": "0.5",
	"runSeconds": "1",
	"report": {
		"period": "Tue. 1 Jan. 2013",
		"elements": [{"id": "page", "name": "Page"}],
		"metrics": [
			{"id": "pageviews", "name": "Page Views", "type": "number"},
			{"id": "channel", "name": "Channel", "type": "string"}
		],
		"data": [
			{"name": "Home", "counts": ["42", "direct"]},
			{"name": "Search, Results", "counts": ["7.5", "organic"]}
		]
	}
}`

func testReport(t *testing.T) *omniture.Report {
	t.Helper()
	r, err := omniture.NewReport(context.Background(), gjson.Parse(reportBody), nil)
	require.NoError(t, err)
	return r
}

func testList() ListData {
	values := omniture.NewValueList("metrics", gjson.Parse(`[
		{"display_name":"Page Views","metric_name":"pageviews"},
		{"display_name":"Visits","metric_name":"visits"}]`), "display_name", "metric_name")
	return NewListData(values)
}

func testSummary() StatsData {
	return NewStatsData(stats.Summary{
		Count:    4,
		Failures: 1,
		Min:      10 * time.Millisecond,
		Max:      40 * time.Millisecond,
		Mean:     25 * time.Millisecond,
		P50:      20 * time.Millisecond,
		P95:      40 * time.Millisecond,
		P99:      40 * time.Millisecond,
	}, nil)
}

func testPacedSummary() StatsData {
	s := testSummary()
	return NewStatsData(stats.Summary{Count: s.Requests}, &rate.Stats{Rate: 2, Calls: 4, Waited: 1500 * time.Millisecond})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFormatter(t *testing.T) {
	assert.IsType(t, &Formatter{}, GetFormatter(FormatText, false, true))
	assert.IsType(t, &JSONFormatter{}, GetFormatter(FormatJSON, false, true))
	assert.IsType(t, &YAMLFormatter{}, GetFormatter(FormatYAML, false, true))
	assert.IsType(t, &CSVFormatter{}, GetFormatter(FormatCSV, false, true))
}

func TestNewReportData(t *testing.T) {
	data := NewReportData(testReport(t))

	assert.Equal(t, "done", data.Status)
	assert.Equal(t, "Tue. 1 Jan. 2013", data.Period)
	assert.Nil(t, data.Segment)
	assert.Equal(t, []ItemData{{Title: "Page", ID: "page"}}, data.Elements)
	assert.Equal(t, TimingData{Queue: 0.5, Execution: 1}, data.Timing)
	assert.Equal(t, []string{"Home", "Search, Results"}, data.Rows)
	require.Len(t, data.Columns, 2)
	assert.Equal(t, ColumnData{ID: "pageviews", Title: "Page Views", Values: []any{42.0, 7.5}}, data.Columns[0])
	assert.Equal(t, []any{"direct", "organic"}, data.Columns[1].Values)
}

func TestNewListData(t *testing.T) {
	list := testList()

	assert.Equal(t, "metrics", list.Name)
	assert.Equal(t, []ItemData{
		{Title: "Page Views", ID: "pageviews"},
		{Title: "Visits", ID: "visits"},
	}, list.Items)
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{Pretty: true}

	var report ReportData
	require.NoError(t, json.Unmarshal([]byte(f.FormatReport(NewReportData(testReport(t)))), &report))
	assert.Equal(t, []string{"Home", "Search, Results"}, report.Rows)

	var list ListData
	require.NoError(t, json.Unmarshal([]byte(f.FormatList(testList())), &list))
	assert.Len(t, list.Items, 2)

	var s StatsData
	require.NoError(t, json.Unmarshal([]byte(f.FormatStats(testSummary())), &s))
	assert.Equal(t, StatsData{Requests: 4, Failures: 1, Min: 10, Mean: 25, P50: 20, P95: 40, P99: 40, Max: 40}, s)

	raw := gjson.Parse(`{"a":[1,2]}`)
	assert.Equal(t, "{\"a\":[1,2]}\n", (&JSONFormatter{}).FormatRaw(raw))
	assert.True(t, gjson.Valid(f.FormatRaw(raw)))
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}

	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(f.FormatReport(NewReportData(testReport(t)))), &report))
	assert.Equal(t, "done", report["status"])

	out := f.FormatRaw(gjson.Parse(`{"status":"queued","reportID":7}`))
	assert.Contains(t, out, "status: queued")
	assert.Contains(t, out, "reportID: 7")

	assert.Contains(t, f.FormatStats(testSummary()), "p95Ms: 40")
}

func TestCSVFormatter(t *testing.T) {
	f := &CSVFormatter{}

	assert.Equal(t,
		"name,pageviews,channel\nHome,42,direct\n\"Search, Results\",7.5,organic\n",
		f.FormatReport(NewReportData(testReport(t))))

	assert.Equal(t,
		"title,id\nPage Views,pageviews\nVisits,visits\n",
		f.FormatList(testList()))

	lines := strings.Split(strings.TrimSpace(f.FormatStats(testSummary())), "\n")
	assert.Equal(t, "metric,value", lines[0])
	assert.Contains(t, lines, "p95_ms,40")
	assert.NotContains(t, lines, "rate_limit,2")

	lines = strings.Split(strings.TrimSpace(f.FormatStats(testPacedSummary())), "\n")
	assert.Contains(t, lines, "rate_limit,2")
	assert.Contains(t, lines, "paced_calls,4")
	assert.Contains(t, lines, "waited_ms,1500")
}

func TestNewStatsData_Pacing(t *testing.T) {
	assert.Nil(t, testSummary().Pacing)
	assert.Equal(t, &PacingData{RateLimit: 2, Calls: 4, Waited: 1500}, testPacedSummary().Pacing)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte((&JSONFormatter{}).FormatStats(testSummary())), &s))
	assert.NotContains(t, s, "pacing")

	assert.Contains(t, (&YAMLFormatter{}).FormatStats(testPacedSummary()), "waitedMs: 1500")
}

func TestCSVFormatter_ShortColumn(t *testing.T) {
	report := ReportData{
		Rows:    []string{"a", "b"},
		Columns: []ColumnData{{ID: "visits", Values: []any{1.0}}},
	}

	assert.Equal(t, "name,visits\na,1\nb,\n", (&CSVFormatter{}).FormatReport(report))
}
