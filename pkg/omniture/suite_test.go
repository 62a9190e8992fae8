package omniture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuite_Request_InjectsReportSuiteID(t *testing.T) {
	fake := newFakeRequester().reply("Report.QueueRanked", `{"reportID":1}`)
	suite := NewSuite("Example", "rs1", fake)

	desc := map[string]any{"date": "2013-01-01"}
	params := map[string]any{"reportDescription": desc}

	_, err := suite.Request(context.Background(), "Report", "QueueRanked", params)
	require.NoError(t, err)

	sent := fake.last().params
	assert.Equal(t, map[string]any{"date": "2013-01-01", "reportSuiteID": "rs1"}, sent["reportDescription"])
	assert.NotContains(t, sent, "rsid_list")

	assert.NotContains(t, desc, "reportSuiteID", "caller's description must not be modified")
	assert.Len(t, params, 1)
}

func TestSuite_Request_InjectsRsidListForReportSuiteAPI(t *testing.T) {
	fake := newFakeRequester().reply("ReportSuite.GetSegments", segmentsBody)
	suite := NewSuite("Example", "rs1", fake)

	_, err := suite.Request(context.Background(), "ReportSuite", "GetSegments", nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"rsid_list": []string{"rs1"}}, fake.last().params)
}

func TestSuite_Request_DescriptionWinsOverReportSuiteAPI(t *testing.T) {
	fake := newFakeRequester().reply("ReportSuite.Validate", `{}`)
	suite := NewSuite("Example", "rs1", fake)

	params := map[string]any{"reportDescription": map[string]any{}}
	_, err := suite.Request(context.Background(), "ReportSuite", "Validate", params)
	require.NoError(t, err)

	sent := fake.last().params
	assert.NotContains(t, sent, "rsid_list")
	assert.Equal(t, map[string]any{"reportSuiteID": "rs1"}, sent["reportDescription"])
}

func TestSuite_Request_DescriptionTypes(t *testing.T) {
	tests := []struct {
		name    string
		desc    any
		want    map[string]any
		wantErr bool
	}{
		{
			name: "string map",
			desc: map[string]string{"date": "2013-01-01"},
			want: map[string]any{"date": "2013-01-01", "reportSuiteID": "rs1"},
		},
		{
			name: "nil map",
			desc: map[string]any(nil),
			want: map[string]any{"reportSuiteID": "rs1"},
		},
		{
			name:    "struct",
			desc:    struct{ Date string }{"2013-01-01"},
			wantErr: true,
		},
		{
			name:    "null",
			desc:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeRequester().reply("Report.QueueRanked", `{"reportID":1}`)
			suite := NewSuite("Example", "rs1", fake)

			_, err := suite.Request(context.Background(), "Report", "QueueRanked", map[string]any{"reportDescription": tt.desc})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				assert.Empty(t, fake.methods())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fake.last().params["reportDescription"])
		})
	}
}

func TestSuite_Request_LeavesOtherCallsAlone(t *testing.T) {
	fake := newFakeRequester().reply("Report.GetStatus", `{"status":"queued"}`)
	suite := NewSuite("Example", "rs1", fake)

	_, err := suite.Request(context.Background(), "Report", "GetStatus", map[string]any{"reportID": 5})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"reportID": 5}, fake.last().params)
}

func TestSuite_Metadata(t *testing.T) {
	fake := newFakeRequester().
		reply("ReportSuite.GetAvailableMetrics", metricsBody).
		reply("ReportSuite.GetAvailableElements", `[{"available_elements":[{"display_name":"Page","element_name":"page"}]}]`).
		reply("ReportSuite.GetEVars", `[{"evars":[{"name":"Campaign","evar_num":"evar1"}]}]`).
		reply("ReportSuite.GetSegments", segmentsBody)
	suite := NewSuite("Example", "rs1", fake)
	ctx := context.Background()

	tests := []struct {
		name  string
		list  func(context.Context) (*Collection[*Value], error)
		key   string
		title string
		id    string
	}{
		{"metrics", suite.Metrics, "Visits", "Visits", "visits"},
		{"elements", suite.Elements, "page", "Page", "page"},
		{"evars", suite.EVars, "evar1", "Campaign", "evar1"},
		{"segments", suite.Segments, "Mobile", "Mobile", "seg2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.list(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name())

			v, err := c.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.title, v.Title())
			assert.Equal(t, tt.id, v.ID())
		})
	}
}

func TestSuite_Metadata_Cached(t *testing.T) {
	fake := newFakeRequester().reply("ReportSuite.GetAvailableMetrics", metricsBody)
	suite := NewSuite("Example", "rs1", fake)
	ctx := context.Background()

	first, err := suite.Metrics(ctx)
	require.NoError(t, err)
	second, err := suite.Metrics(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.count("ReportSuite.GetAvailableMetrics"))
}

func TestSuite_Metadata_ConcurrentFirstAccess(t *testing.T) {
	fake := newFakeRequester().reply("ReportSuite.GetSegments", segmentsBody)
	suite := NewSuite("Example", "rs1", fake)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.Segments(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fake.count("ReportSuite.GetSegments"))
}

func TestSuite_Metadata_ErrorsAreNotCached(t *testing.T) {
	failures := 1
	fake := newFakeRequester().on("ReportSuite.GetAvailableMetrics", func(map[string]any) (string, error) {
		if failures > 0 {
			failures--
			return "", errors.New("connection reset")
		}
		return metricsBody, nil
	})
	suite := NewSuite("Example", "rs1", fake)
	ctx := context.Background()

	_, err := suite.Metrics(ctx)
	require.Error(t, err)

	metrics, err := suite.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.Len())
	assert.Equal(t, 2, fake.count("ReportSuite.GetAvailableMetrics"))
}

func TestSuite_Metadata_Malformed(t *testing.T) {
	fake := newFakeRequester().reply("ReportSuite.GetAvailableMetrics", `{"unexpected":true}`)
	suite := NewSuite("Example", "rs1", fake)

	_, err := suite.Metrics(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSuite_Report(t *testing.T) {
	suite := NewSuite("Example", "rs1", newFakeRequester())

	q := suite.Report()
	assert.Same(t, suite, q.Suite())
	assert.Empty(t, q.Raw())
	assert.Equal(t, "", q.ID())
	assert.Equal(t, StateUnqueued, q.State())
	assert.NotSame(t, q, suite.Report())
	assert.Equal(t, "<Example: rs1>", suite.String())
}
