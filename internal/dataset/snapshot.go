// Package dataset loads and writes input snapshots: the asset topology, cost
// inputs, anomaly confidences and correlation history for one scoring run.
package dataset

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/model"
)

// Snapshot is a self-contained set of engine inputs. Profiles may be given
// directly or derived from FailureStats; correlation history may be given as
// paired Records or as raw Readings and Outcomes.
type Snapshot struct {
	Assets       []model.Asset             `yaml:"assets,omitempty"`
	Edges        []model.Edge              `yaml:"edges,omitempty"`
	Profiles     []model.CostProfile       `yaml:"profiles,omitempty"`
	FailureStats []cost.FailureStats       `yaml:"failure_stats,omitempty"`
	Confidences  map[string]float64        `yaml:"confidences,omitempty"`
	Records      []model.CorrelationRecord `yaml:"records,omitempty"`
	Readings     []correlation.Reading     `yaml:"readings,omitempty"`
	Outcomes     []correlation.Outcome     `yaml:"outcomes,omitempty"`
}

// Load reads a YAML snapshot from path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}
	return s, nil
}

// Parse decodes a YAML snapshot. Unknown fields are rejected.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, eris.Wrap(err, "dataset: decode yaml")
	}
	return &s, nil
}

// Write encodes s as YAML to path.
func Write(path string, s *Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "dataset: encode yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	return nil
}

// Graph builds the asset graph. A snapshot without assets uses the reference
// topology.
func (s *Snapshot) Graph() (*graph.Graph, error) {
	if len(s.Assets) == 0 {
		return graph.Reference()
	}
	return graph.New(s.Assets, s.Edges)
}

// CostProfiles returns the explicit profiles followed by those derived from
// failure statistics with calc.
func (s *Snapshot) CostProfiles(calc *cost.Calculator) ([]model.CostProfile, error) {
	derived, err := calc.Profiles(s.FailureStats)
	if err != nil {
		return nil, err
	}
	out := make([]model.CostProfile, 0, len(s.Profiles)+len(derived))
	out = append(out, s.Profiles...)
	out = append(out, derived...)
	return out, nil
}

// CorrelationRecords returns the explicit records followed by those paired
// from raw readings and outcomes using the annotator's lag.
func (s *Snapshot) CorrelationRecords(a *correlation.Annotator) []model.CorrelationRecord {
	out := make([]model.CorrelationRecord, 0, len(s.Records)+len(s.Outcomes))
	out = append(out, s.Records...)
	if len(s.Readings) > 0 && len(s.Outcomes) > 0 {
		out = append(out, a.Pair(s.Readings, s.Outcomes)...)
	}
	return out
}
