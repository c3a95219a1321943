package scoring

import (
	"golang.org/x/sync/errgroup"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/decision"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/propagation"
)

// Inputs is one immutable snapshot of engine inputs.
type Inputs struct {
	Profiles    []model.CostProfile
	Confidences map[string]float64
	Records     []model.CorrelationRecord
	// Fallback is set when Profiles came from the reference table.
	Fallback bool
}

// Engines bundles the three engines built from one EngineConfig.
type Engines struct {
	Decision    *decision.Engine
	Propagation *propagation.Engine
	Correlation *correlation.Annotator
}

// NewEngines validates cfg and builds all three engines.
func NewEngines(cfg config.EngineConfig) (*Engines, error) {
	de, err := decision.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	pe, err := propagation.NewEngine(cfg.PropagationDecay)
	if err != nil {
		return nil, err
	}
	ce, err := correlation.NewAnnotator(cfg)
	if err != nil {
		return nil, err
	}
	return &Engines{Decision: de, Propagation: pe, Correlation: ce}, nil
}

// Evaluate runs the decision, propagation and correlation engines
// concurrently over in. The result carries no id, status or timing.
func (e *Engines) Evaluate(topo *graph.Graph, in Inputs) (*model.CycleResult, error) {
	res := &model.CycleResult{Fallback: in.Fallback}

	var g errgroup.Group
	g.Go(func() error {
		d, err := e.Decision.DecideAll(in.Profiles)
		if err != nil {
			return err
		}
		res.Decisions = d
		return nil
	})
	g.Go(func() error {
		states, err := e.Propagation.States(topo, in.Confidences)
		if err != nil {
			return err
		}
		impacts := make(map[string]float64, len(states))
		for _, s := range states {
			impacts[s.AssetID] = s.Impact
		}
		res.States = states
		res.Risks = e.Propagation.Risks(topo, impacts)
		res.EdgeWeights = propagation.EdgeWeights(topo, impacts)
		return nil
	})
	g.Go(func() error {
		b, err := e.Correlation.Annotate(in.Records)
		if err != nil {
			return err
		}
		res.Buckets = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
