package correlation

import (
	"math"

	"github.com/snowcore/pdm-cli/internal/model"
)

// DangerZone is the classification of one live predictor reading.
type DangerZone struct {
	Value    float64                 `json:"value"`
	Bucket   model.CorrelationBucket `json:"bucket"`
	Baseline *float64                `json:"baseline_rate"`
	Multiple float64                 `json:"multiple"`
	InDanger bool                    `json:"in_danger"`
}

// Baseline returns the rate of the lowest-range bucket, or nil when it holds
// no records.
func Baseline(buckets []model.CorrelationBucket) *float64 {
	if len(buckets) == 0 {
		return nil
	}
	return buckets[0].Rate
}

// IsDanger reports whether rate exceeds multiple times baseline. A nil rate
// or nil baseline is never danger.
func IsDanger(rate, baseline *float64, multiple float64) bool {
	if rate == nil || baseline == nil {
		return false
	}
	return *rate > multiple*(*baseline)
}

func validateMultiple(multiple float64) error {
	if math.IsNaN(multiple) || math.IsInf(multiple, 0) || multiple <= 0 {
		return model.NewValidationError("danger_zone_multiple", multiple, "must be > 0")
	}
	return nil
}

// MarkDanger sets the Danger flag on every bucket in place.
func MarkDanger(buckets []model.CorrelationBucket, multiple float64) error {
	if err := validateMultiple(multiple); err != nil {
		return err
	}
	base := Baseline(buckets)
	for i := range buckets {
		buckets[i].Danger = IsDanger(buckets[i].Rate, base, multiple)
	}
	return nil
}

// Classify finds the bucket containing value and reports whether it is in
// the danger zone.
func Classify(value float64, buckets []model.CorrelationBucket, multiple float64) (DangerZone, error) {
	if err := validateMultiple(multiple); err != nil {
		return DangerZone{}, err
	}
	if math.IsNaN(value) {
		return DangerZone{}, model.NewValidationError("value", value, "must be a number")
	}
	if len(buckets) == 0 {
		return DangerZone{}, model.NewValidationError("buckets", nil, "no buckets to classify against")
	}

	for _, b := range buckets {
		if !b.Contains(value) {
			continue
		}
		base := Baseline(buckets)
		return DangerZone{
			Value:    value,
			Bucket:   b,
			Baseline: base,
			Multiple: multiple,
			InDanger: IsDanger(b.Rate, base, multiple),
		}, nil
	}
	return DangerZone{}, model.NewValidationError("value", value, "outside every bucket range")
}
