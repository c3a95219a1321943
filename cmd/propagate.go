package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/propagation"
)

var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Propagate anomaly confidence through the asset graph",
	Long: "Computes each asset's impact as the larger of its own anomaly confidence and the " +
		"decayed impact of its upstream assets, then lists the risk carried by every edge.",
	RunE: runPropagate,
}

func init() {
	addInputFlags(propagateCmd)
	propagateCmd.Flags().Float64("decay", 0, "override engine.propagation_decay")
	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	if cmd.Flags().Changed("decay") {
		cfg.Engine.PropagationDecay, _ = cmd.Flags().GetFloat64("decay")
	}

	in, topo, err := loadInputs(cmd.Context(), input)
	if err != nil {
		return eris.Wrap(err, "propagate")
	}

	engine, err := propagation.NewEngine(cfg.Engine.PropagationDecay)
	if err != nil {
		return eris.Wrap(err, "propagate")
	}
	states, err := engine.States(topo, in.Confidences)
	if err != nil {
		return eris.Wrap(err, "propagate")
	}
	impacts := make(map[string]float64, len(states))
	for _, s := range states {
		impacts[s.AssetID] = s.Impact
	}
	return writePropagation(cmd.OutOrStdout(), format, states, engine.Risks(topo, impacts))
}
