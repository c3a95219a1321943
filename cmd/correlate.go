package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/correlation"
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Bucket lagged predictor readings against outcomes",
	Long: "Groups correlation records into predictor buckets, computes each bucket's outcome " +
		"rate and flags buckets whose rate exceeds the danger multiple of the lowest bucket.",
	Example: `  pdm-cli correlate --input history.yaml --value 68`,
	RunE:    runCorrelate,
}

func init() {
	addInputFlags(correlateCmd)
	correlateCmd.Flags().Float64("value", 0, "classify a live predictor reading against the buckets")
	rootCmd.AddCommand(correlateCmd)
}

func runCorrelate(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")

	in, _, err := loadInputs(cmd.Context(), input)
	if err != nil {
		return eris.Wrap(err, "correlate")
	}

	a, err := correlation.NewAnnotator(cfg.Engine)
	if err != nil {
		return eris.Wrap(err, "correlate")
	}
	buckets, err := a.Annotate(in.Records)
	if err != nil {
		return eris.Wrap(err, "correlate")
	}

	var dz *correlation.DangerZone
	if cmd.Flags().Changed("value") {
		v, _ := cmd.Flags().GetFloat64("value")
		z, err := a.Classify(v, buckets)
		if err != nil {
			return eris.Wrap(err, "correlate")
		}
		dz = &z
	}
	return writeCorrelation(cmd.OutOrStdout(), format, buckets, len(in.Records), dz)
}
