package model

// CostProfile holds the economic parameters of one asset for a single
// scoring cycle. A refresh replaces every profile; profiles are never patched.
type CostProfile struct {
	AssetID    string    `json:"asset_id" yaml:"asset_id"`
	AssetType  AssetType `json:"asset_type" yaml:"asset_type"`
	PFail      float64   `json:"p_fail" yaml:"p_fail"`
	Confidence float64   `json:"confidence" yaml:"confidence"`

	// Unplanned failure components.
	UnplannedDowntimeHours float64 `json:"unplanned_downtime_hours" yaml:"unplanned_downtime_hours"`
	CostPerDowntimeHour    float64 `json:"cost_per_downtime_hour" yaml:"cost_per_downtime_hour"`
	RepairCost             float64 `json:"repair_cost" yaml:"repair_cost"`
	ScrapRiskCost          float64 `json:"scrap_risk_cost" yaml:"scrap_risk_cost"`

	// Preventive maintenance components. PM downtime is billed at CostPerDowntimeHour.
	PMDowntimeHours float64 `json:"pm_downtime_hours" yaml:"pm_downtime_hours"`
	PMLaborCost     float64 `json:"pm_labor_cost" yaml:"pm_labor_cost"`
	PMPartsCost     float64 `json:"pm_parts_cost" yaml:"pm_parts_cost"`

	KeyDrivers []string `json:"key_drivers,omitempty" yaml:"key_drivers,omitempty"`
}

// UnplannedTotal is the full cost of an unplanned failure.
func (p CostProfile) UnplannedTotal() float64 {
	return p.UnplannedDowntimeHours*p.CostPerDowntimeHour + p.RepairCost + p.ScrapRiskCost
}

// PMTotal is the full cost of performing preventive maintenance now.
func (p CostProfile) PMTotal() float64 {
	return p.PMDowntimeHours*p.CostPerDowntimeHour + p.PMLaborCost + p.PMPartsCost
}

// ExpectedUnplannedCost is PFail times the unplanned total.
func (p CostProfile) ExpectedUnplannedCost() float64 {
	return p.PFail * p.UnplannedTotal()
}

// NetBenefit is the expected unplanned cost minus the PM total. Positive
// means PM pays for itself.
func (p CostProfile) NetBenefit() float64 {
	return p.ExpectedUnplannedCost() - p.PMTotal()
}
