package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/metrics"
	"github.com/snowcore/pdm-cli/internal/scoring"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a scoring cycle against the store",
	Long: "Loads cost profiles, anomaly confidences and correlation history from the store, " +
		"evaluates all engines and saves the result. With --watch, repeats every scoring.interval_secs.",
	RunE: runCycle,
}

func init() {
	cycleCmd.Flags().Bool("watch", false, "run cycles until interrupted")
	cycleCmd.Flags().String("format", formatTable, "output format for the decisions: table, csv or json")
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("store"); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")

	topo, err := scoring.LoadTopology(cfg.Scoring.TopologyFile)
	if err != nil {
		return err
	}
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	runner, err := scoring.NewRunner(st, topo, cfg, metrics.DefaultRegistry())
	if err != nil {
		return err
	}

	if watch {
		runner.Run(ctx)
		return nil
	}

	res, err := runner.RunCycle(ctx)
	if err != nil {
		return eris.Wrap(err, "cycle")
	}
	out := cmd.OutOrStdout()
	if format != formatJSON {
		fallback := ""
		if res.Fallback {
			fallback = " (reference fallback)"
		}
		_, _ = fmt.Fprintf(out, "cycle %s %s in %dms%s\n\n", res.ID, res.Status, res.DurationMs, fallback)
		return writeDecisions(out, format, res.Decisions)
	}
	return writeJSON(out, res)
}
