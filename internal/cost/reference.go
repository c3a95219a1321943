package cost

import "github.com/snowcore/pdm-cli/internal/model"

// ReferenceProfiles is the static cost table for the reference topology. It
// seeds demo stores and backs the opt-in fallback when no live profiles exist.
func ReferenceProfiles() []model.CostProfile {
	normal := []string{"Operating within normal parameters"}
	return []model.CostProfile{
		{
			AssetID: "AUTOCLAVE_01", AssetType: model.AssetTypeAutoclave, PFail: 0.32, Confidence: 0.9,
			UnplannedDowntimeHours: 10, CostPerDowntimeHour: 15000, RepairCost: 20000, ScrapRiskCost: 50000,
			PMDowntimeHours: 2, PMLaborCost: 8000, PMPartsCost: 10000,
			KeyDrivers: []string{"3 anomalies in last 90 minutes", "Vacuum decay rate accelerating", "3,500h since last maintenance"},
		},
		{
			AssetID: "LAYUP_ROOM", AssetType: model.AssetTypeEnvironment, PFail: 0.18, Confidence: 0.85,
			UnplannedDowntimeHours: 0, CostPerDowntimeHour: 15000, RepairCost: 2000, ScrapRiskCost: 150000,
			PMDowntimeHours: 0.5, PMLaborCost: 500, PMPartsCost: 500,
			KeyDrivers: []string{"2 humidity excursions in last 90 minutes", "Peak humidity 68%", "Downstream batches at elevated scrap risk"},
		},
		{
			AssetID: "AUTOCLAVE_02", AssetType: model.AssetTypeAutoclave, PFail: 0.125, Confidence: 0.7,
			UnplannedDowntimeHours: 10, CostPerDowntimeHour: 15000, RepairCost: 20000, ScrapRiskCost: 50000,
			PMDowntimeHours: 2, PMLaborCost: 8000, PMPartsCost: 10000, KeyDrivers: normal,
		},
		{
			AssetID: "CNC_MILL_01", AssetType: model.AssetTypeCNC, PFail: 0.075, Confidence: 0.7,
			UnplannedDowntimeHours: 4, CostPerDowntimeHour: 8000, RepairCost: 5000, ScrapRiskCost: 10000,
			PMDowntimeHours: 1, PMLaborCost: 3000, PMPartsCost: 2000, KeyDrivers: normal,
		},
		{
			AssetID: "CNC_MILL_02", AssetType: model.AssetTypeCNC, PFail: 0.075, Confidence: 0.7,
			UnplannedDowntimeHours: 4, CostPerDowntimeHour: 8000, RepairCost: 5000, ScrapRiskCost: 10000,
			PMDowntimeHours: 1, PMLaborCost: 3000, PMPartsCost: 2000, KeyDrivers: normal,
		},
		{
			AssetID: "LAYUP_BOT_01", AssetType: model.AssetTypeRobot, PFail: 0.05, Confidence: 0.7,
			UnplannedDowntimeHours: 3, CostPerDowntimeHour: 5000, RepairCost: 3000, ScrapRiskCost: 5000,
			PMDowntimeHours: 0.5, PMLaborCost: 2000, PMPartsCost: 1500, KeyDrivers: normal,
		},
		{
			AssetID: "LAYUP_BOT_02", AssetType: model.AssetTypeRobot, PFail: 0.05, Confidence: 0.7,
			UnplannedDowntimeHours: 3, CostPerDowntimeHour: 5000, RepairCost: 3000, ScrapRiskCost: 5000,
			PMDowntimeHours: 0.5, PMLaborCost: 2000, PMPartsCost: 1500, KeyDrivers: normal,
		},
		{
			AssetID: "QC_STATION_01", AssetType: model.AssetTypeQC, PFail: 0.025, Confidence: 0.7,
			UnplannedDowntimeHours: 2, CostPerDowntimeHour: 5000, RepairCost: 2000, ScrapRiskCost: 5000,
			PMDowntimeHours: 0.5, PMLaborCost: 1000, PMPartsCost: 500, KeyDrivers: normal,
		},
		{
			AssetID: "QC_STATION_02", AssetType: model.AssetTypeQC, PFail: 0.025, Confidence: 0.7,
			UnplannedDowntimeHours: 2, CostPerDowntimeHour: 5000, RepairCost: 2000, ScrapRiskCost: 5000,
			PMDowntimeHours: 0.5, PMLaborCost: 1000, PMPartsCost: 500, KeyDrivers: normal,
		},
	}
}
