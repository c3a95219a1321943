package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcore/pdm-cli/internal/model"
)

func TestSummarize(t *testing.T) {
	decisions := []model.Decision{
		{AssetID: "A", Recommendation: model.RecommendationUrgent, ExpectedUnplannedCost: 70400, PMCost: 48000, NetBenefit: 22400},
		{AssetID: "B", Recommendation: model.RecommendationPlanPM, ExpectedUnplannedCost: 3000, PMCost: 1000, NetBenefit: 2000},
		{AssetID: "C", Recommendation: model.RecommendationMonitor, ExpectedUnplannedCost: 500, PMCost: 9000, NetBenefit: -8500},
	}

	s := Summarize(decisions)
	assert.Equal(t, 1, s.Urgent)
	assert.Equal(t, 1, s.PlanPM)
	assert.Equal(t, 1, s.Monitor)
	assert.InDelta(t, 73400, s.TotalExpectedLoss, 1e-9)
	assert.InDelta(t, 49000, s.TotalPMCost, 1e-9)
	assert.InDelta(t, 24400, s.TotalNetBenefit, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestFrontier(t *testing.T) {
	decisions := []model.Decision{
		{AssetID: "A", Recommendation: model.RecommendationUrgent, PFail: 0.32, PMCost: 48000, NetBenefit: 22400},
		{AssetID: "B", Recommendation: model.RecommendationMonitor, PFail: 0.01, PMCost: 1000, NetBenefit: -5000},
		{AssetID: "C", Recommendation: model.RecommendationPlanPM, PFail: 0.1, PMCost: 0, NetBenefit: 300},
	}

	pts := Frontier(decisions)
	require.Len(t, pts, 3)

	assert.Equal(t, "A", pts[0].AssetID)
	assert.InDelta(t, 32, pts[0].RiskReduction, 1e-9)
	assert.InDelta(t, 22400.0/48000.0, pts[0].ROI, 1e-9)

	// Heavy losses clip at -1.
	assert.InDelta(t, -1, pts[1].ROI, 1e-9)

	// No PM cost means no ROI.
	assert.Equal(t, 0.0, pts[2].ROI)
}
