// Package correlation buckets lagged predictor/outcome records into outcome
// rates and classifies live readings against them.
package correlation

import (
	"math"
	"strconv"

	"github.com/snowcore/pdm-cli/internal/model"
)

// ValidateBoundaries checks that boundaries are finite, non-empty and
// strictly increasing.
func ValidateBoundaries(boundaries []float64) error {
	if len(boundaries) == 0 {
		return model.NewValidationError("correlation_buckets", nil, "at least one boundary is required")
	}
	for i, b := range boundaries {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return model.NewValidationError("correlation_buckets", b, "boundary must be finite")
		}
		if i > 0 && !(b > boundaries[i-1]) {
			return model.NewValidationError("correlation_buckets", boundaries, "boundaries must be strictly increasing")
		}
	}
	return nil
}

// Ranges builds the empty buckets for boundaries. n boundaries yield n+1
// buckets: (-inf,b0), [b0,b1), ..., [bn-1,+inf).
func Ranges(boundaries []float64) ([]model.CorrelationBucket, error) {
	if err := ValidateBoundaries(boundaries); err != nil {
		return nil, err
	}

	out := make([]model.CorrelationBucket, 0, len(boundaries)+1)
	for i := 0; i <= len(boundaries); i++ {
		var b model.CorrelationBucket
		if i > 0 {
			lo := boundaries[i-1]
			b.Lower = &lo
		}
		if i < len(boundaries) {
			hi := boundaries[i]
			b.Upper = &hi
		}
		b.Label = Label(b.Lower, b.Upper, "")
		out = append(out, b)
	}
	return out, nil
}

// BucketRate counts records per bucket and computes each bucket's outcome
// rate. A bucket with no records has a nil rate. An empty record set is not
// an error.
func BucketRate(records []model.CorrelationRecord, boundaries []float64) ([]model.CorrelationBucket, error) {
	buckets, err := Ranges(boundaries)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if math.IsNaN(r.Predictor) {
			return nil, model.NewValidationError("predictor", r.Predictor, "must be a number")
		}
		i := indexOf(buckets, r.Predictor)
		buckets[i].Count++
		if r.Outcome {
			buckets[i].Positives++
		}
	}

	for i := range buckets {
		if buckets[i].Count == 0 {
			continue
		}
		rate := float64(buckets[i].Positives) / float64(buckets[i].Count)
		buckets[i].Rate = &rate
	}
	return buckets, nil
}

// indexOf returns the bucket containing v. Buckets built by Ranges cover the
// whole real line, so the last bucket is the fallback for +Inf.
func indexOf(buckets []model.CorrelationBucket, v float64) int {
	for i, b := range buckets {
		if b.Contains(v) {
			return i
		}
	}
	return len(buckets) - 1
}

// Label renders a bucket range, e.g. "<55%", "55-60%" or ">=70%".
func Label(lower, upper *float64, unit string) string {
	switch {
	case lower == nil && upper == nil:
		return "all"
	case lower == nil:
		return "<" + formatBound(*upper) + unit
	case upper == nil:
		return ">=" + formatBound(*lower) + unit
	default:
		return formatBound(*lower) + "-" + formatBound(*upper) + unit
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
