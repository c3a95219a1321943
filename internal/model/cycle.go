package model

import "time"

// CycleStatus is the outcome of a scoring cycle.
type CycleStatus string

const (
	CycleStatusComplete CycleStatus = "complete"
	CycleStatusFailed   CycleStatus = "failed"
)

// CycleResult is everything one scoring cycle produced, as persisted for the
// presentation layer.
type CycleResult struct {
	ID          string              `json:"id"`
	Status      CycleStatus         `json:"status"`
	Fallback    bool                `json:"fallback"`
	Decisions   []Decision          `json:"decisions"`
	States      []PropagationState  `json:"states"`
	Risks       []PropagationRisk   `json:"risks"`
	EdgeWeights []EdgeWeight        `json:"edge_weights"`
	Buckets     []CorrelationBucket `json:"buckets"`
	Error       string              `json:"error,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
	CreatedAt   time.Time           `json:"created_at"`
}
