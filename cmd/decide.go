package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/decision"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Rank maintenance actions by expected net benefit",
	Long: "Computes expected unplanned cost, PM cost and net benefit for every asset and " +
		"recommends URGENT, PLAN_PM or MONITOR. Reads cost profiles from --input or the store.",
	Example: `  pdm-cli decide --input plant.yaml
  pdm-cli decide --format csv > decisions.csv`,
	RunE: runDecide,
}

func init() {
	addInputFlags(decideCmd)
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")

	in, _, err := loadInputs(cmd.Context(), input)
	if err != nil {
		return eris.Wrap(err, "decide")
	}

	engine, err := decision.NewEngine(cfg.Engine)
	if err != nil {
		return eris.Wrap(err, "decide")
	}
	decisions, err := engine.DecideAll(in.Profiles)
	if err != nil {
		return eris.Wrap(err, "decide")
	}
	return writeDecisions(cmd.OutOrStdout(), format, decisions)
}
