// Package cost builds and validates per-asset cost profiles.
package cost

import (
	"math"
	"strings"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/model"
)

// Rates holds per-asset-type downtime pricing configuration.
type Rates struct {
	// DowntimePerHour is the USD cost of one hour of line downtime, keyed by asset type.
	DowntimePerHour map[model.AssetType]float64 `yaml:"downtime_per_hour" mapstructure:"downtime_per_hour"`
	// DefaultDowntimePerHour applies to asset types missing from DowntimePerHour.
	DefaultDowntimePerHour float64 `yaml:"default_downtime_per_hour" mapstructure:"default_downtime_per_hour"`
}

// FailureStats is the aggregated telemetry and maintenance history the
// upstream probability model produces for one asset.
type FailureStats struct {
	AssetID    string          `json:"asset_id" yaml:"asset_id"`
	AssetType  model.AssetType `json:"asset_type" yaml:"asset_type"`
	PFail      float64         `json:"p_fail" yaml:"p_fail"`
	Confidence float64         `json:"confidence" yaml:"confidence"`

	UnplannedDowntimeHoursAvg float64 `json:"unplanned_downtime_hours_avg" yaml:"unplanned_downtime_hours_avg"`
	RepairCostAvg             float64 `json:"repair_cost_avg" yaml:"repair_cost_avg"`
	ScrapRiskCost             float64 `json:"scrap_risk_cost" yaml:"scrap_risk_cost"`
	PMDowntimeHoursAvg        float64 `json:"pm_downtime_hours_avg" yaml:"pm_downtime_hours_avg"`
	PMLaborCost               float64 `json:"pm_labor_cost" yaml:"pm_labor_cost"`
	PMPartsCost               float64 `json:"pm_parts_cost" yaml:"pm_parts_cost"`

	KeyDrivers []string `json:"key_drivers,omitempty" yaml:"key_drivers,omitempty"`
}

// Calculator turns failure statistics into cost profiles.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// DowntimeRate returns the hourly downtime cost for an asset type.
func (c *Calculator) DowntimeRate(t model.AssetType) float64 {
	if rate, ok := c.rates.DowntimePerHour[t]; ok {
		return rate
	}
	return c.rates.DefaultDowntimePerHour
}

// Profile builds a CostProfile from stats and validates it.
func (c *Calculator) Profile(stats FailureStats) (model.CostProfile, error) {
	p := model.CostProfile{
		AssetID:                stats.AssetID,
		AssetType:              stats.AssetType,
		PFail:                  stats.PFail,
		Confidence:             stats.Confidence,
		UnplannedDowntimeHours: stats.UnplannedDowntimeHoursAvg,
		CostPerDowntimeHour:    c.DowntimeRate(stats.AssetType),
		RepairCost:             stats.RepairCostAvg,
		ScrapRiskCost:          stats.ScrapRiskCost,
		PMDowntimeHours:        stats.PMDowntimeHoursAvg,
		PMLaborCost:            stats.PMLaborCost,
		PMPartsCost:            stats.PMPartsCost,
		KeyDrivers:             stats.KeyDrivers,
	}
	if err := Validate(p); err != nil {
		return model.CostProfile{}, err
	}
	return p, nil
}

// Profiles builds a profile per stats entry, stopping at the first invalid one.
func (c *Calculator) Profiles(stats []FailureStats) ([]model.CostProfile, error) {
	out := make([]model.CostProfile, 0, len(stats))
	for _, s := range stats {
		p, err := c.Profile(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Validate rejects profiles with an empty asset id, a probability or
// confidence outside [0,1], or a negative or non-finite cost component.
// Values are never clamped.
func Validate(p model.CostProfile) error {
	if p.AssetID == "" {
		return model.NewValidationError("asset_id", nil, "must not be empty")
	}
	if !unitInterval(p.PFail) {
		return model.NewValidationError(p.AssetID+".p_fail", p.PFail, "must be within [0,1]")
	}
	if !unitInterval(p.Confidence) {
		return model.NewValidationError(p.AssetID+".confidence", p.Confidence, "must be within [0,1]")
	}

	components := []struct {
		name  string
		value float64
	}{
		{"unplanned_downtime_hours", p.UnplannedDowntimeHours},
		{"cost_per_downtime_hour", p.CostPerDowntimeHour},
		{"repair_cost", p.RepairCost},
		{"scrap_risk_cost", p.ScrapRiskCost},
		{"pm_downtime_hours", p.PMDowntimeHours},
		{"pm_labor_cost", p.PMLaborCost},
		{"pm_parts_cost", p.PMPartsCost},
	}
	for _, c := range components {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return model.NewValidationError(p.AssetID+"."+c.name, c.value, "must be finite")
		}
		if c.value < 0 {
			return model.NewValidationError(p.AssetID+"."+c.name, c.value, "must be >= 0")
		}
	}
	return nil
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// DefaultRates returns the default downtime pricing for the demo plant.
func DefaultRates() Rates {
	return Rates{
		DowntimePerHour: map[model.AssetType]float64{
			model.AssetTypeEnvironment: 15000,
			model.AssetTypeAutoclave:   15000,
			model.AssetTypeCNC:         8000,
			model.AssetTypeRobot:       5000,
			model.AssetTypeQC:          5000,
		},
		DefaultDowntimePerHour: 5000,
	}
}

// RatesFromConfig converts pricing configuration into Rates. Config keys are
// matched case-insensitively against asset types.
func RatesFromConfig(p config.PricingConfig) Rates {
	r := Rates{
		DowntimePerHour:        make(map[model.AssetType]float64, len(p.DowntimePerHour)),
		DefaultDowntimePerHour: p.DefaultDowntimePerHour,
	}
	for k, v := range p.DowntimePerHour {
		r.DowntimePerHour[model.AssetType(strings.ToUpper(k))] = v
	}
	return r
}
