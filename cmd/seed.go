package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/dataset"
	"github.com/snowcore/pdm-cli/internal/scoring"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a snapshot into the store",
	Long: "Replaces the stored cost profiles and anomaly confidences with those of a snapshot " +
		"file (or the reference plant) and appends its correlation history.",
	Example: `  pdm-cli seed
  pdm-cli seed --input plant.yaml
  pdm-cli seed --hours 2160 --dump reference.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("input", "", "snapshot YAML file (default: the reference plant)")
	seedCmd.Flags().Int("hours", 720, "hours of generated history for the reference plant")
	seedCmd.Flags().String("dump", "", "also write the seeded snapshot to this file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("store"); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	hours, _ := cmd.Flags().GetInt("hours")
	dump, _ := cmd.Flags().GetString("dump")

	var snap *dataset.Snapshot
	if input != "" {
		s, err := dataset.Load(input)
		if err != nil {
			return err
		}
		snap = s
	} else {
		if hours < 0 {
			return eris.Errorf("seed: --hours must be >= 0 (got %d)", hours)
		}
		snap = dataset.Reference(hours, cfg.Engine.LagDuration)
	}

	if _, err := snap.Graph(); err != nil {
		return eris.Wrap(err, "seed: topology")
	}
	profiles, err := snap.CostProfiles(cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing)))
	if err != nil {
		return eris.Wrap(err, "seed: cost profiles")
	}
	engines, err := scoring.NewEngines(cfg.Engine)
	if err != nil {
		return err
	}
	records := snap.CorrelationRecords(engines.Correlation)

	if dump != "" {
		if err := dataset.Write(dump, snap); err != nil {
			return err
		}
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.ReplaceCostProfiles(ctx, profiles); err != nil {
		return eris.Wrap(err, "seed: cost profiles")
	}
	if err := st.ReplaceConfidences(ctx, snap.Confidences); err != nil {
		return eris.Wrap(err, "seed: confidences")
	}
	n, err := st.AppendCorrelationRecords(ctx, records)
	if err != nil {
		return eris.Wrap(err, "seed: correlation records")
	}

	zap.L().Info("store seeded",
		zap.Int("profiles", len(profiles)),
		zap.Int("confidences", len(snap.Confidences)),
		zap.Int("records", n),
	)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles, %d confidences, %d correlation records\n",
		len(profiles), len(snap.Confidences), n)
	return nil
}
