package decision

import "github.com/snowcore/pdm-cli/internal/model"

// Summary aggregates a decision set into the headline maintenance KPIs.
// Cost totals only include assets where PM has a positive net benefit.
type Summary struct {
	Urgent            int     `json:"urgent"`
	PlanPM            int     `json:"plan_pm"`
	Monitor           int     `json:"monitor"`
	TotalExpectedLoss float64 `json:"total_expected_loss"`
	TotalPMCost       float64 `json:"total_pm_cost"`
	TotalNetBenefit   float64 `json:"total_net_benefit"`
}

// Summarize computes the Summary of decisions.
func Summarize(decisions []model.Decision) Summary {
	var s Summary
	for _, d := range decisions {
		switch d.Recommendation {
		case model.RecommendationUrgent:
			s.Urgent++
		case model.RecommendationPlanPM:
			s.PlanPM++
		case model.RecommendationMonitor:
			s.Monitor++
		}
		if d.NetBenefit > 0 {
			s.TotalExpectedLoss += d.ExpectedUnplannedCost
			s.TotalPMCost += d.PMCost
			s.TotalNetBenefit += d.NetBenefit
		}
	}
	return s
}

// FrontierPoint places one asset on the cost/risk-reduction frontier.
type FrontierPoint struct {
	AssetID        string               `json:"asset_id"`
	Recommendation model.Recommendation `json:"recommendation"`
	PMCost         float64              `json:"c_pm"`
	RiskReduction  float64              `json:"risk_reduction"`
	ROI            float64              `json:"roi"`
}

// Frontier returns one point per decision, in input order. ROI is net
// benefit over PM cost, floored at -1; an asset with zero PM cost has ROI 0.
func Frontier(decisions []model.Decision) []FrontierPoint {
	out := make([]FrontierPoint, 0, len(decisions))
	for _, d := range decisions {
		pt := FrontierPoint{
			AssetID:        d.AssetID,
			Recommendation: d.Recommendation,
			PMCost:         d.PMCost,
			RiskReduction:  d.PFail * 100,
		}
		if d.PMCost > 0 {
			pt.ROI = d.NetBenefit / d.PMCost
			if pt.ROI < -1 {
				pt.ROI = -1
			}
		}
		out = append(out, pt)
	}
	return out
}
