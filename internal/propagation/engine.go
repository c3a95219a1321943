// Package propagation scores how anomaly risk flows downstream through the
// asset graph using a decayed-max traversal.
package propagation

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/model"
)

// Topology is the read-only view of the asset graph the engine needs.
// *graph.Graph satisfies it.
type Topology interface {
	Order() ([]string, error)
	Upstream(id string) []string
	Edges() []model.Edge
}

const (
	highRiskScore   = 0.7
	mediumRiskScore = 0.4
)

// Engine propagates anomaly confidence along the graph. It holds only its
// decay factor and is safe for concurrent use.
type Engine struct {
	decay float64
}

// NewEngine returns an Engine attenuating impact by decay per hop. Decay must
// be in (0,1].
func NewEngine(decay float64) (*Engine, error) {
	if math.IsNaN(decay) || decay <= 0 || decay > 1 {
		return nil, model.NewValidationError("propagation_decay", decay, "must be within (0,1]")
	}
	return &Engine{decay: decay}, nil
}

// Decay returns the per-hop attenuation factor.
func (e *Engine) Decay() float64 {
	return e.decay
}

// Propagate computes the impact score of every asset in topological order.
// A source asset's impact is its own confidence. Any other asset takes
// max(confidence, decay * max upstream impact). Assets missing from
// confidences are treated as healthy (confidence 0). Keys that are not in the
// topology are ignored.
func (e *Engine) Propagate(topo Topology, confidences map[string]float64) (map[string]float64, error) {
	order, err := topo.Order()
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(order))
	for _, id := range order {
		known[id] = true
	}
	for id, c := range confidences {
		if !known[id] {
			zap.L().Debug("propagation: ignoring confidence for unknown asset", zap.String("asset_id", id))
			continue
		}
		if math.IsNaN(c) || c < 0 || c > 1 {
			return nil, model.NewValidationError(id+".confidence", c, "must be within [0,1]")
		}
	}

	impact := make(map[string]float64, len(order))
	for _, id := range order {
		own := ConfidenceOf(confidences, id)

		ups := topo.Upstream(id)
		if len(ups) == 0 {
			impact[id] = own
			continue
		}

		worst := 0.0
		for _, u := range ups {
			ui, done := impact[u]
			if !done {
				return nil, model.NewConfigError(id, "upstream asset "+u+" not processed before it; topological order invalid")
			}
			worst = math.Max(worst, ui)
		}
		impact[id] = math.Max(own, e.decay*worst)
	}
	return impact, nil
}

// ConfidenceOf returns the reported confidence for id, or 0 when the asset
// has no reported anomaly.
func ConfidenceOf(confidences map[string]float64, id string) float64 {
	c, ok := confidences[id]
	if !ok {
		return 0
	}
	return c
}

// States runs Propagate and returns per-asset state in topological order.
func (e *Engine) States(topo Topology, confidences map[string]float64) ([]model.PropagationState, error) {
	impact, err := e.Propagate(topo, confidences)
	if err != nil {
		return nil, err
	}
	order, err := topo.Order()
	if err != nil {
		return nil, err
	}

	out := make([]model.PropagationState, 0, len(order))
	for _, id := range order {
		out = append(out, model.PropagationState{
			AssetID:    id,
			Confidence: ConfidenceOf(confidences, id),
			Impact:     impact[id],
		})
	}
	return out, nil
}

// EdgeWeights returns the display weight max(impact[source], impact[target])
// for every edge, in topology edge order.
func EdgeWeights(topo Topology, impacts map[string]float64) []model.EdgeWeight {
	edges := topo.Edges()
	out := make([]model.EdgeWeight, 0, len(edges))
	for _, ed := range edges {
		out = append(out, model.EdgeWeight{
			Source: ed.Source,
			Target: ed.Target,
			Kind:   ed.Kind,
			Weight: math.Max(impacts[ed.Source], impacts[ed.Target]),
		})
	}
	return out
}

// Risks lists the risk carried by each edge: decay times the source impact.
// Edges with zero score are omitted. The result is sorted by score
// descending, then target id, then source id.
func (e *Engine) Risks(topo Topology, impacts map[string]float64) []model.PropagationRisk {
	var out []model.PropagationRisk
	for _, ed := range topo.Edges() {
		score := e.decay * impacts[ed.Source]
		if score <= 0 {
			continue
		}
		out = append(out, model.PropagationRisk{
			AssetID:     ed.Target,
			SourceAsset: ed.Source,
			Kind:        ed.Kind,
			Score:       score,
			Weight:      math.Max(impacts[ed.Source], impacts[ed.Target]),
			Level:       Level(score),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AssetID != b.AssetID {
			return a.AssetID < b.AssetID
		}
		return a.SourceAsset < b.SourceAsset
	})
	return out
}

// Level buckets a risk score into HIGH, MEDIUM or LOW.
func Level(score float64) model.RiskLevel {
	switch {
	case score >= highRiskScore:
		return model.RiskLevelHigh
	case score >= mediumRiskScore:
		return model.RiskLevelMedium
	default:
		return model.RiskLevelLow
	}
}
