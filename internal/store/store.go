// Package store persists engine inputs (cost profiles, anomaly scores,
// correlation history) and scoring cycle results.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/snowcore/pdm-cli/internal/model"
)

// CycleFilter specifies criteria for listing scoring cycles.
type CycleFilter struct {
	Status model.CycleStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scoring service.
type Store interface {
	// Cost profiles. A replace swaps the full set atomically.
	ReplaceCostProfiles(ctx context.Context, profiles []model.CostProfile) error
	ListCostProfiles(ctx context.Context) ([]model.CostProfile, error)

	// Anomaly confidences per asset.
	ReplaceConfidences(ctx context.Context, confidences map[string]float64) error
	ListConfidences(ctx context.Context) (map[string]float64, error)

	// Correlation history.
	AppendCorrelationRecords(ctx context.Context, records []model.CorrelationRecord) (int, error)
	ListCorrelationRecords(ctx context.Context, since time.Time) ([]model.CorrelationRecord, error)

	// Scoring cycles
	SaveCycle(ctx context.Context, cycle *model.CycleResult) error
	GetCycle(ctx context.Context, id string) (*model.CycleResult, error)
	LatestCycle(ctx context.Context) (*model.CycleResult, error)
	ListCycles(ctx context.Context, filter CycleFilter) ([]model.CycleResult, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
