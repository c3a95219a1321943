package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/decision"
	"github.com/snowcore/pdm-cli/internal/model"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatCSV, formatJSON:
		return nil
	}
	return eris.Errorf("--format must be table, csv or json (got %q)", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write json")
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "write csv rows")
	}
	return nil
}

func ff(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

type decisionsOutput struct {
	Decisions []model.Decision `json:"decisions"`
	Summary   decision.Summary `json:"summary"`
}

// writeDecisions renders ranked decisions followed, for tables, by the
// portfolio summary.
func writeDecisions(w io.Writer, format string, decisions []model.Decision) error {
	summary := decision.Summarize(decisions)
	switch format {
	case formatJSON:
		return writeJSON(w, decisionsOutput{Decisions: decisions, Summary: summary})
	case formatCSV:
		rows := make([][]string, 0, len(decisions))
		for _, d := range decisions {
			rows = append(rows, []string{
				d.AssetID,
				string(d.Recommendation),
				string(d.TargetWindow),
				ff(d.PFail, 4),
				ff(d.Confidence, 2),
				ff(d.UnplannedCost, 2),
				ff(d.ExpectedUnplannedCost, 2),
				ff(d.PMCost, 2),
				ff(d.NetBenefit, 2),
			})
		}
		return writeCSV(w, []string{
			"asset_id", "recommendation", "target_window", "p_fail", "confidence",
			"c_unplanned", "expected_unplanned_cost", "c_pm", "net_benefit",
		}, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "ASSET\tACTION\tWINDOW\tP_FAIL\tE[LOSS]\tC_PM\tNET\t")
	for _, d := range decisions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t$%s\t$%s\t$%s\t\n",
			d.AssetID,
			d.Recommendation,
			d.TargetWindow,
			d.PFail*100,
			ff(d.ExpectedUnplannedCost, 0),
			ff(d.PMCost, 0),
			ff(d.NetBenefit, 0),
		)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write table")
	}
	_, err := fmt.Fprintf(w, "\nurgent=%d plan_pm=%d monitor=%d expected_loss=$%s pm_cost=$%s net_benefit=$%s\n",
		summary.Urgent, summary.PlanPM, summary.Monitor,
		ff(summary.TotalExpectedLoss, 0), ff(summary.TotalPMCost, 0), ff(summary.TotalNetBenefit, 0))
	return eris.Wrap(err, "write summary")
}

type propagationOutput struct {
	States []model.PropagationState `json:"states"`
	Risks  []model.PropagationRisk  `json:"risks"`
}

// writePropagation renders per-asset impact and, for tables and JSON, the
// ranked edge risks. CSV holds the asset states only.
func writePropagation(w io.Writer, format string, states []model.PropagationState, risks []model.PropagationRisk) error {
	switch format {
	case formatJSON:
		if risks == nil {
			risks = []model.PropagationRisk{}
		}
		return writeJSON(w, propagationOutput{States: states, Risks: risks})
	case formatCSV:
		rows := make([][]string, 0, len(states))
		for _, s := range states {
			rows = append(rows, []string{s.AssetID, ff(s.Confidence, 4), ff(s.Impact, 4)})
		}
		return writeCSV(w, []string{"asset_id", "confidence", "impact"}, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ASSET\tCONFIDENCE\tIMPACT")
	for _, s := range states {
		_, _ = fmt.Fprintf(tw, "%s\t%.3f\t%.3f\n", s.AssetID, s.Confidence, s.Impact)
	}
	if len(risks) > 0 {
		_, _ = fmt.Fprintln(tw, "\nSOURCE\tTARGET\tKIND\tRISK\tLEVEL")
		for _, r := range risks {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%s\n", r.SourceAsset, r.AssetID, r.Kind, r.Score, r.Level)
		}
	}
	return eris.Wrap(tw.Flush(), "write table")
}

type correlationOutput struct {
	Buckets        []model.CorrelationBucket `json:"buckets"`
	Records        int                       `json:"records"`
	Classification *correlation.DangerZone   `json:"classification,omitempty"`
}

func rateString(rate *float64) string {
	if rate == nil {
		return ""
	}
	return ff(*rate, 4)
}

// writeCorrelation renders annotated buckets. A non-nil dz is the
// classification of a live reading.
func writeCorrelation(w io.Writer, format string, buckets []model.CorrelationBucket, records int, dz *correlation.DangerZone) error {
	switch format {
	case formatJSON:
		return writeJSON(w, correlationOutput{Buckets: buckets, Records: records, Classification: dz})
	case formatCSV:
		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{
				b.Label,
				strconv.Itoa(b.Count),
				strconv.Itoa(b.Positives),
				rateString(b.Rate),
				strconv.FormatBool(b.Danger),
			})
		}
		return writeCSV(w, []string{"bucket", "count", "positives", "rate", "danger"}, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUCKET\tCOUNT\tPOSITIVES\tRATE\t")
	for _, b := range buckets {
		rate := "-"
		if b.Rate != nil {
			rate = fmt.Sprintf("%.1f%%", *b.Rate*100)
		}
		flag := ""
		if b.Danger {
			flag = "DANGER"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", b.Label, b.Count, b.Positives, rate, flag)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write table")
	}
	if dz != nil {
		state := "normal"
		if dz.InDanger {
			state = "danger zone"
		}
		_, err := fmt.Fprintf(w, "\nreading %s falls in %s: %s\n", ff(dz.Value, -1), dz.Bucket.Label, state)
		return eris.Wrap(err, "write classification")
	}
	return nil
}
