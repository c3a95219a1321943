package model

// Recommendation is the maintenance action for an asset.
type Recommendation string

const (
	RecommendationUrgent  Recommendation = "URGENT"
	RecommendationPlanPM  Recommendation = "PLAN_PM"
	RecommendationMonitor Recommendation = "MONITOR"
)

// TargetWindow is when the recommended action should happen.
type TargetWindow string

const (
	TargetWindowNextStop TargetWindow = "NEXT_STOP"
	TargetWindowWithin7D TargetWindow = "WITHIN_7D"
)

// Decision is derived from exactly one CostProfile and is recomputed, never
// patched.
type Decision struct {
	AssetID               string         `json:"asset_id"`
	AssetType             AssetType      `json:"asset_type,omitempty"`
	Recommendation        Recommendation `json:"recommendation"`
	TargetWindow          TargetWindow   `json:"target_window"`
	Confidence            float64        `json:"confidence"`
	PFail                 float64        `json:"p_fail"`
	UnplannedCost         float64        `json:"c_unplanned"`
	ExpectedUnplannedCost float64        `json:"expected_unplanned_cost"`
	PMCost                float64        `json:"c_pm"`
	NetBenefit            float64        `json:"net_benefit"`
	KeyDrivers            []string       `json:"key_drivers,omitempty"`
}
