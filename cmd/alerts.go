package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snowcore/pdm-cli/internal/metrics"
	"github.com/snowcore/pdm-cli/internal/monitoring"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate maintenance alerts from recent scoring cycles",
	Long: "Collects the scoring cycles in monitoring.lookback_window_hours and lists the alerts " +
		"they raise. With --send, delivers them to monitoring.webhook_url.",
	RunE: runAlerts,
}

func init() {
	alertsCmd.Flags().Bool("send", false, "deliver alerts to the configured webhook")
	alertsCmd.Flags().String("format", formatTable, "output format: table or json")
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("store"); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != formatTable && format != formatJSON {
		return eris.Errorf("--format must be table or json (got %q)", format)
	}
	send, _ := cmd.Flags().GetBool("send")
	if send && cfg.Monitoring.WebhookURL == "" {
		return eris.New("--send requires monitoring.webhook_url")
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	snap, err := monitoring.NewCollector(st).Collect(ctx, cfg.Monitoring.LookbackWindowHours)
	if err != nil {
		return err
	}
	alerter := monitoring.NewAlerter(cfg.Monitoring, metrics.DefaultRegistry())
	alerts := alerter.Evaluate(snap)

	sent := 0
	if send {
		sent = alerter.SendAlerts(ctx, alerts)
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		if alerts == nil {
			alerts = []monitoring.Alert{}
		}
		return writeJSON(out, alerts)
	}

	_, _ = fmt.Fprintf(out, "%d cycles in last %dh (%d failed)\n\n",
		snap.CyclesTotal, snap.LookbackHours, snap.CyclesFailed)
	if len(alerts) == 0 {
		_, err := fmt.Fprintln(out, "no alerts")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SEVERITY\tTYPE\tMESSAGE")
	for _, a := range alerts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Severity, a.Type, a.Message)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write table")
	}
	if send {
		_, _ = fmt.Fprintf(out, "\nsent %d/%d alerts\n", sent, len(alerts))
	}
	return nil
}
