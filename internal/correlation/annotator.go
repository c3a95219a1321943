package correlation

import (
	"time"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/model"
)

// Annotator bundles the configured boundaries, danger multiple, unit and lag
// so callers can bucket and classify with one value. It is immutable.
type Annotator struct {
	boundaries []float64
	multiple   float64
	unit       string
	lag        time.Duration
	tolerance  time.Duration
}

// NewAnnotator validates the correlation settings of cfg.
func NewAnnotator(cfg config.EngineConfig) (*Annotator, error) {
	if err := ValidateBoundaries(cfg.CorrelationBuckets); err != nil {
		return nil, err
	}
	if err := validateMultiple(cfg.DangerZoneMultiple); err != nil {
		return nil, err
	}
	if cfg.LagDuration < 0 {
		return nil, model.NewValidationError("lag_duration", cfg.LagDuration.String(), "must be >= 0")
	}
	if cfg.LagTolerance < 0 {
		return nil, model.NewValidationError("lag_tolerance", cfg.LagTolerance.String(), "must be >= 0")
	}
	return &Annotator{
		boundaries: append([]float64(nil), cfg.CorrelationBuckets...),
		multiple:   cfg.DangerZoneMultiple,
		unit:       cfg.PredictorUnit,
		lag:        cfg.LagDuration,
		tolerance:  cfg.LagTolerance,
	}, nil
}

// Lag returns the fixed predictor-to-outcome offset.
func (a *Annotator) Lag() time.Duration { return a.lag }

// Multiple returns the danger-zone multiple.
func (a *Annotator) Multiple() float64 { return a.multiple }

// Annotate buckets records, labels buckets with the predictor unit and marks
// danger buckets.
func (a *Annotator) Annotate(records []model.CorrelationRecord) ([]model.CorrelationBucket, error) {
	buckets, err := BucketRate(records, a.boundaries)
	if err != nil {
		return nil, err
	}
	for i := range buckets {
		buckets[i].Label = Label(buckets[i].Lower, buckets[i].Upper, a.unit)
	}
	if err := MarkDanger(buckets, a.multiple); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Classify classifies a live reading against buckets from Annotate.
func (a *Annotator) Classify(value float64, buckets []model.CorrelationBucket) (DangerZone, error) {
	return Classify(value, buckets, a.multiple)
}

// Pair joins raw readings with outcomes using the configured lag.
func (a *Annotator) Pair(readings []Reading, outcomes []Outcome) []model.CorrelationRecord {
	return PairLagged(readings, outcomes, a.lag, a.tolerance)
}
