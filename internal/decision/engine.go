// Package decision turns cost profiles into ranked maintenance
// recommendations using an expected-cost policy.
package decision

import (
	"math"
	"sort"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/model"
)

// Engine applies the expected-cost policy. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	highRiskThreshold float64
}

// NewEngine creates an Engine from the engine configuration.
func NewEngine(cfg config.EngineConfig) (*Engine, error) {
	t := cfg.HighRiskThreshold
	if math.IsNaN(t) || t < 0 || t > 1 {
		return nil, model.NewValidationError("high_risk_threshold", t, "must be within [0,1]")
	}
	return &Engine{highRiskThreshold: t}, nil
}

// HighRiskThreshold returns the p_fail at or above which a positive-benefit
// asset is escalated to URGENT.
func (e *Engine) HighRiskThreshold() float64 {
	return e.highRiskThreshold
}

// Decide derives a Decision from a single profile. Policy, first match wins:
//
//	p_fail >= threshold && net_benefit > 0  -> URGENT,  NEXT_STOP
//	net_benefit > 0                         -> PLAN_PM, WITHIN_7D
//	otherwise                               -> MONITOR, WITHIN_7D
//
// Confidence is copied from the profile unchanged.
func (e *Engine) Decide(p model.CostProfile) (model.Decision, error) {
	if err := cost.Validate(p); err != nil {
		return model.Decision{}, err
	}

	unplanned := p.UnplannedTotal()
	expected := p.PFail * unplanned
	pm := p.PMTotal()
	net := expected - pm

	d := model.Decision{
		AssetID:               p.AssetID,
		AssetType:             p.AssetType,
		Confidence:            p.Confidence,
		PFail:                 p.PFail,
		UnplannedCost:         unplanned,
		ExpectedUnplannedCost: expected,
		PMCost:                pm,
		NetBenefit:            net,
		KeyDrivers:            p.KeyDrivers,
	}

	switch {
	case p.PFail >= e.highRiskThreshold && net > 0:
		d.Recommendation = model.RecommendationUrgent
		d.TargetWindow = model.TargetWindowNextStop
	case net > 0:
		d.Recommendation = model.RecommendationPlanPM
		d.TargetWindow = model.TargetWindowWithin7D
	default:
		d.Recommendation = model.RecommendationMonitor
		d.TargetWindow = model.TargetWindowWithin7D
	}
	return d, nil
}

// DecideAll decides every profile and returns the ranked result. A duplicate
// asset id or any invalid profile fails the whole batch.
func (e *Engine) DecideAll(profiles []model.CostProfile) ([]model.Decision, error) {
	seen := make(map[string]bool, len(profiles))
	out := make([]model.Decision, 0, len(profiles))
	for _, p := range profiles {
		if seen[p.AssetID] {
			return nil, model.NewValidationError("asset_id", p.AssetID, "duplicate cost profile")
		}
		seen[p.AssetID] = true

		d, err := e.Decide(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	Rank(out)
	return out, nil
}

// Rank sorts decisions by net benefit descending, then p_fail descending,
// then asset id ascending. The order is total for distinct asset ids.
func Rank(decisions []model.Decision) {
	sort.SliceStable(decisions, func(i, j int) bool {
		a, b := decisions[i], decisions[j]
		if a.NetBenefit != b.NetBenefit {
			return a.NetBenefit > b.NetBenefit
		}
		if a.PFail != b.PFail {
			return a.PFail > b.PFail
		}
		return a.AssetID < b.AssetID
	})
}
