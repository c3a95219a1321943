package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/metrics"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertUrgentMaintenance   AlertType = "urgent_maintenance"
	AlertHighPropagationRisk AlertType = "high_propagation_risk"
	AlertCorrelationDanger   AlertType = "correlation_danger_zone"
	AlertCycleFailureRate    AlertType = "cycle_failure_rate"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityWarning  = "warning"
)

// minFinishedCycles is how many finished cycles the failure-rate alert needs.
const minFinishedCycles = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot and sends alerts via webhook.
type Alerter struct {
	cfg     config.MonitoringConfig
	client  *http.Client
	metrics *metrics.Registry
	now     func() time.Time
}

// NewAlerter creates a new Alerter. reg may be nil.
func NewAlerter(cfg config.MonitoringConfig, reg *metrics.Registry) *Alerter {
	return &Alerter{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		metrics: reg,
		now:     time.Now,
	}
}

// Evaluate returns the alerts raised by snap, most severe first.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := a.now().UTC()

	if len(snap.Urgent) > 0 {
		ids := make([]string, 0, len(snap.Urgent))
		var loss, net float64
		for _, d := range snap.Urgent {
			ids = append(ids, d.AssetID)
			loss += d.ExpectedUnplannedCost
			net += d.NetBenefit
		}
		alerts = append(alerts, Alert{
			Type:     AlertUrgentMaintenance,
			Severity: SeverityCritical,
			Message: fmt.Sprintf(
				"%d asset(s) need maintenance at the next stop: %s (expected loss $%.0f, net benefit $%.0f)",
				len(ids), strings.Join(ids, ", "), loss, net,
			),
			Details: map[string]any{
				"cycle_id":      snap.LatestCycleID,
				"assets":        ids,
				"expected_loss": loss,
				"net_benefit":   net,
			},
			Timestamp: now,
		})
	}

	if finished := snap.CyclesComplete + snap.CyclesFailed; finished >= minFinishedCycles && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertCycleFailureRate,
			Severity: SeverityHigh,
			Message: fmt.Sprintf(
				"Scoring cycle failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.CyclesFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.CyclesFailed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	if len(snap.HighRisks) > 0 {
		paths := make([]string, 0, len(snap.HighRisks))
		for _, r := range snap.HighRisks {
			paths = append(paths, fmt.Sprintf("%s->%s (%.2f)", r.SourceAsset, r.AssetID, r.Score))
		}
		alerts = append(alerts, Alert{
			Type:     AlertHighPropagationRisk,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d high propagation risk(s): %s", len(paths), strings.Join(paths, ", ")),
			Details: map[string]any{
				"cycle_id": snap.LatestCycleID,
				"edges":    paths,
			},
			Timestamp: now,
		})
	}

	if len(snap.DangerBuckets) > 0 {
		labels := make([]string, 0, len(snap.DangerBuckets))
		for _, b := range snap.DangerBuckets {
			labels = append(labels, b.Label)
		}
		alerts = append(alerts, Alert{
			Type:     AlertCorrelationDanger,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Outcome rate is in the danger zone for predictor buckets %s", strings.Join(labels, ", ")),
			Details: map[string]any{
				"cycle_id": snap.LatestCycleID,
				"buckets":  labels,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := a.sendWebhook(ctx, alert)
		if a.metrics != nil {
			a.metrics.RecordAlert(string(alert.Type), err == nil)
		}
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
