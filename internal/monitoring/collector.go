// Package monitoring turns recent scoring cycles into maintenance alerts and
// delivers them to a webhook.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/store"
)

// collectLimit caps how many recent cycles a collection scans.
const collectLimit = 1000

// Snapshot is a point-in-time view of plant health built from the scoring
// cycles inside the lookback window. The asset findings come from the most
// recent complete cycle.
type Snapshot struct {
	CyclesTotal    int     `json:"cycles_total"`
	CyclesComplete int     `json:"cycles_complete"`
	CyclesFailed   int     `json:"cycles_failed"`
	FailRate       float64 `json:"fail_rate"`

	LatestCycleID string                    `json:"latest_cycle_id,omitempty"`
	Urgent        []model.Decision          `json:"urgent,omitempty"`
	HighRisks     []model.PropagationRisk   `json:"high_risks,omitempty"`
	DangerBuckets []model.CorrelationBucket `json:"danger_buckets,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// CycleLister is the store subset the collector reads.
type CycleLister interface {
	ListCycles(ctx context.Context, filter store.CycleFilter) ([]model.CycleResult, error)
}

// Collector gathers snapshots from stored scoring cycles.
type Collector struct {
	cycles CycleLister
	now    func() time.Time
}

// NewCollector creates a new snapshot collector.
func NewCollector(cycles CycleLister) *Collector {
	return &Collector{cycles: cycles, now: time.Now}
}

// Collect builds a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	// Newest first.
	cycles, err := c.cycles.ListCycles(ctx, store.CycleFilter{Limit: collectLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list cycles")
	}

	var latest *model.CycleResult
	for i := range cycles {
		cy := &cycles[i]
		if cy.CreatedAt.Before(cutoff) {
			continue
		}
		snap.CyclesTotal++
		switch cy.Status {
		case model.CycleStatusComplete:
			snap.CyclesComplete++
			if latest == nil {
				latest = cy
			}
		case model.CycleStatusFailed:
			snap.CyclesFailed++
		}
	}
	if finished := snap.CyclesComplete + snap.CyclesFailed; finished > 0 {
		snap.FailRate = float64(snap.CyclesFailed) / float64(finished)
	}
	if latest == nil {
		return snap, nil
	}

	snap.LatestCycleID = latest.ID
	for _, d := range latest.Decisions {
		if d.Recommendation == model.RecommendationUrgent {
			snap.Urgent = append(snap.Urgent, d)
		}
	}
	for _, r := range latest.Risks {
		if r.Level == model.RiskLevelHigh {
			snap.HighRisks = append(snap.HighRisks, r)
		}
	}
	for _, b := range latest.Buckets {
		if b.Danger {
			snap.DangerBuckets = append(snap.DangerBuckets, b)
		}
	}
	return snap, nil
}
