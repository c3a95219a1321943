package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/snowcore/pdm-cli/internal/dataset"
	"github.com/snowcore/pdm-cli/internal/graph"
)

// LoadTopology builds the asset graph from a snapshot file, or returns the
// reference topology when path is empty.
func LoadTopology(path string) (*graph.Graph, error) {
	if path == "" {
		return graph.Reference()
	}
	snap, err := dataset.Load(path)
	if err != nil {
		return nil, eris.Wrap(err, "scoring: load topology")
	}
	g, err := snap.Graph()
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: build topology from %s", path)
	}
	return g, nil
}
