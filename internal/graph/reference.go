package graph

import "github.com/snowcore/pdm-cli/internal/model"

// ReferenceAssets is the composite line of the demo plant: one layup room
// feeding two parallel robot/autoclave/CNC/QC lanes.
func ReferenceAssets() []model.Asset {
	return []model.Asset{
		{ID: "LAYUP_ROOM", Type: model.AssetTypeEnvironment, Position: model.Position{X: 0, Y: 1}},
		{ID: "LAYUP_BOT_01", Type: model.AssetTypeRobot, Position: model.Position{X: 1, Y: 0}},
		{ID: "LAYUP_BOT_02", Type: model.AssetTypeRobot, Position: model.Position{X: 1, Y: 2}},
		{ID: "AUTOCLAVE_01", Type: model.AssetTypeAutoclave, Position: model.Position{X: 2, Y: 0}},
		{ID: "AUTOCLAVE_02", Type: model.AssetTypeAutoclave, Position: model.Position{X: 2, Y: 2}},
		{ID: "CNC_MILL_01", Type: model.AssetTypeCNC, Position: model.Position{X: 3, Y: 0}},
		{ID: "CNC_MILL_02", Type: model.AssetTypeCNC, Position: model.Position{X: 3, Y: 2}},
		{ID: "QC_STATION_01", Type: model.AssetTypeQC, Position: model.Position{X: 4, Y: 0}},
		{ID: "QC_STATION_02", Type: model.AssetTypeQC, Position: model.Position{X: 4, Y: 2}},
	}
}

// ReferenceEdges connects ReferenceAssets.
func ReferenceEdges() []model.Edge {
	return []model.Edge{
		{Source: "LAYUP_ROOM", Target: "LAYUP_BOT_01", Kind: model.EdgeKindEnv},
		{Source: "LAYUP_ROOM", Target: "LAYUP_BOT_02", Kind: model.EdgeKindEnv},
		{Source: "LAYUP_BOT_01", Target: "AUTOCLAVE_01", Kind: model.EdgeKindFlow},
		{Source: "LAYUP_BOT_02", Target: "AUTOCLAVE_02", Kind: model.EdgeKindFlow},
		{Source: "AUTOCLAVE_01", Target: "CNC_MILL_01", Kind: model.EdgeKindFlow},
		{Source: "AUTOCLAVE_02", Target: "CNC_MILL_02", Kind: model.EdgeKindFlow},
		{Source: "CNC_MILL_01", Target: "QC_STATION_01", Kind: model.EdgeKindFlow},
		{Source: "CNC_MILL_02", Target: "QC_STATION_02", Kind: model.EdgeKindFlow},
	}
}

// Reference builds the reference topology. It cannot fail for the built-in
// data; the error is returned for symmetry with New.
func Reference() (*Graph, error) {
	return New(ReferenceAssets(), ReferenceEdges())
}
