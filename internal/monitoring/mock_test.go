package monitoring

import (
	"context"
	"time"

	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/store"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type mockCycles struct {
	cycles []model.CycleResult
	err    error
	filter store.CycleFilter
}

func (m *mockCycles) ListCycles(_ context.Context, filter store.CycleFilter) ([]model.CycleResult, error) {
	m.filter = filter
	return m.cycles, m.err
}

func completeCycle(id string, age time.Duration) model.CycleResult {
	return model.CycleResult{
		ID:        id,
		Status:    model.CycleStatusComplete,
		CreatedAt: testNow.Add(-age),
		Decisions: []model.Decision{
			{AssetID: "AUTOCLAVE_01", Recommendation: model.RecommendationUrgent, ExpectedUnplannedCost: 22400, NetBenefit: 16400},
			{AssetID: "CNC_MILL_01", Recommendation: model.RecommendationPlanPM, NetBenefit: 900},
			{AssetID: "QC_STATION_02", Recommendation: model.RecommendationMonitor, NetBenefit: -1300},
		},
		Risks: []model.PropagationRisk{
			{AssetID: "LAYUP_BOT_01", SourceAsset: "LAYUP_ROOM", Score: 0.72, Level: model.RiskLevelHigh},
			{AssetID: "AUTOCLAVE_02", SourceAsset: "LAYUP_BOT_02", Score: 0.45, Level: model.RiskLevelMedium},
		},
		Buckets: []model.CorrelationBucket{
			{Label: "<55%"},
			{Label: ">=70%", Danger: true},
		},
	}
}

func failedCycle(id string, age time.Duration) model.CycleResult {
	return model.CycleResult{
		ID:        id,
		Status:    model.CycleStatusFailed,
		Error:     "store unavailable",
		CreatedAt: testNow.Add(-age),
	}
}

func newTestCollector(m *mockCycles) *Collector {
	c := NewCollector(m)
	c.now = func() time.Time { return testNow }
	return c
}
