// Package model defines the records shared by the decision, propagation and
// correlation engines and the layers that load and render them.
package model

// AssetType classifies a tracked piece of equipment or environment.
type AssetType string

const (
	AssetTypeEnvironment AssetType = "ENVIRONMENT"
	AssetTypeRobot       AssetType = "ROBOT"
	AssetTypeAutoclave   AssetType = "AUTOCLAVE"
	AssetTypeCNC         AssetType = "CNC"
	AssetTypeQC          AssetType = "QC"
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeEnvironment, AssetTypeRobot, AssetTypeAutoclave, AssetTypeCNC, AssetTypeQC:
		return true
	}
	return false
}

// EdgeKind describes why one asset depends on another.
type EdgeKind string

const (
	// EdgeKindFlow is a physical material pipeline.
	EdgeKindFlow EdgeKind = "FLOW"
	// EdgeKindEnv is an environmental influence.
	EdgeKindEnv EdgeKind = "ENV"
)

// Position is a layout hint for renderers. The engines ignore it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Asset is immutable reference data created with the graph.
type Asset struct {
	ID       string    `json:"id" yaml:"id"`
	Type     AssetType `json:"type" yaml:"type"`
	Position Position  `json:"position" yaml:"position"`
}

// Edge is a directed dependency from Source to Target.
type Edge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Kind   EdgeKind `json:"kind" yaml:"kind"`
}
