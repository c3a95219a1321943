package model

// RiskLevel buckets a propagation risk score for display.
type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "HIGH"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelLow    RiskLevel = "LOW"
)

// PropagationState is the per-asset input confidence and computed impact.
type PropagationState struct {
	AssetID    string  `json:"asset_id"`
	Confidence float64 `json:"confidence"`
	Impact     float64 `json:"impact"`
}

// PropagationRisk describes risk flowing along one edge.
type PropagationRisk struct {
	AssetID     string    `json:"asset_id"`
	SourceAsset string    `json:"source_asset"`
	Kind        EdgeKind  `json:"kind"`
	Score       float64   `json:"risk_score"`
	Weight      float64   `json:"weight"`
	Level       RiskLevel `json:"risk_level"`
}

// EdgeWeight is the display weight of a rendered edge.
type EdgeWeight struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight"`
}
