package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcore/pdm-cli/internal/model"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.CyclesTotal)
	assert.NotNil(t, r.Decisions)
	assert.NotNil(t, r.HTTPRequestsTotal)
	assert.NotNil(t, r.registry)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordCycle(t *testing.T) {
	r := NewRegistry()
	r.RecordCycle(model.CycleStatusComplete, 20*time.Millisecond, false)
	r.RecordCycle(model.CycleStatusComplete, 30*time.Millisecond, true)
	r.RecordCycle(model.CycleStatusFailed, time.Millisecond, false)

	c, err := r.CyclesTotal.GetMetricWithLabelValues("complete")
	require.NoError(t, err)
	assert.Equal(t, 2.0, counterValue(t, c))
	assert.Equal(t, 1.0, counterValue(t, r.FallbackTotal))
}

func TestRecordAlert(t *testing.T) {
	r := NewRegistry()
	r.RecordAlert("urgent_maintenance", true)
	r.RecordAlert("urgent_maintenance", true)
	r.RecordAlert("urgent_maintenance", false)

	sent, err := r.AlertsTotal.GetMetricWithLabelValues("urgent_maintenance", "sent")
	require.NoError(t, err)
	assert.Equal(t, 2.0, counterValue(t, sent))
	failed, err := r.AlertsTotal.GetMetricWithLabelValues("urgent_maintenance", "failed")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, failed))
}

func TestRecordResult(t *testing.T) {
	r := NewRegistry()
	rate := 0.6
	r.RecordResult(&model.CycleResult{
		Decisions: []model.Decision{
			{AssetID: "A", Recommendation: model.RecommendationUrgent, ExpectedUnplannedCost: 70400, PMCost: 48000, NetBenefit: 22400},
			{AssetID: "B", Recommendation: model.RecommendationMonitor, NetBenefit: -10},
		},
		States: []model.PropagationState{
			{AssetID: "LAYUP_ROOM", Impact: 0.8},
			{AssetID: "AUTOCLAVE_01", Impact: 0.72},
		},
		Buckets: []model.CorrelationBucket{{Rate: &rate, Danger: true}, {}},
	})

	urgent, err := r.Decisions.GetMetricWithLabelValues("URGENT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, urgent))
	assert.Equal(t, 22400.0, counterValue(t, r.NetBenefitTotal))
	assert.Equal(t, 1.0, counterValue(t, r.DangerBuckets))

	impact, err := r.AssetImpact.GetMetricWithLabelValues("AUTOCLAVE_01")
	require.NoError(t, err)
	assert.InDelta(t, 0.72, counterValue(t, impact), 1e-12)

	// A later cycle without the asset drops its series.
	r.RecordResult(&model.CycleResult{States: []model.PropagationState{{AssetID: "LAYUP_ROOM", Impact: 0.1}}})
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "pdm_asset_impact" {
			assert.Len(t, f.GetMetric(), 1)
		}
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/api/decisions", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `pdm_http_requests_total{method="GET",route="/api/decisions",status="200"} 1`)
}
