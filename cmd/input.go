package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/dataset"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/scoring"
)

// addInputFlags registers the flags shared by the evaluation commands.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "snapshot YAML file (default: read from the configured store)")
	cmd.Flags().String("format", formatTable, "output format: table, csv or json")
}

// loadInputs returns engine inputs and the topology, from the snapshot at
// path or, when path is empty, from the store.
func loadInputs(ctx context.Context, path string) (scoring.Inputs, *graph.Graph, error) {
	if path != "" {
		return loadSnapshotInputs(path)
	}

	if err := cfg.Validate("store"); err != nil {
		return scoring.Inputs{}, nil, err
	}
	topo, err := scoring.LoadTopology(cfg.Scoring.TopologyFile)
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	defer st.Close() //nolint:errcheck

	runner, err := scoring.NewRunner(st, topo, cfg, nil)
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	in, err := runner.LoadInputs(ctx)
	return in, topo, err
}

func loadSnapshotInputs(path string) (scoring.Inputs, *graph.Graph, error) {
	if err := cfg.Validate("engine"); err != nil {
		return scoring.Inputs{}, nil, err
	}
	snap, err := dataset.Load(path)
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	topo, err := snap.Graph()
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	profiles, err := snap.CostProfiles(cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing)))
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	engines, err := scoring.NewEngines(cfg.Engine)
	if err != nil {
		return scoring.Inputs{}, nil, err
	}
	return scoring.Inputs{
		Profiles:    profiles,
		Confidences: snap.Confidences,
		Records:     snap.CorrelationRecords(engines.Correlation),
	}, topo, nil
}
