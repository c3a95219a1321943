package correlation

import (
	"sort"
	"time"

	"github.com/snowcore/pdm-cli/internal/model"
)

// Reading is one raw predictor sample, e.g. layup-room humidity.
type Reading struct {
	At    time.Time `json:"at" yaml:"at"`
	Value float64   `json:"value" yaml:"value"`
}

// Outcome is one observed result, e.g. whether a cured batch was scrapped.
type Outcome struct {
	At       time.Time `json:"at" yaml:"at"`
	Positive bool      `json:"positive" yaml:"positive"`
}

// PairLagged joins each outcome at time T with the latest reading taken in
// [T-lag-tolerance, T-lag]. Outcomes with no reading in that window are
// dropped. Records are returned in outcome time order and stamped with the
// reading time.
func PairLagged(readings []Reading, outcomes []Outcome, lag, tolerance time.Duration) []model.CorrelationRecord {
	rs := append([]Reading(nil), readings...)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].At.Before(rs[j].At) })

	sorted := append([]Outcome(nil), outcomes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	out := make([]model.CorrelationRecord, 0, len(sorted))
	for _, o := range sorted {
		latest := o.At.Add(-lag)
		earliest := latest.Add(-tolerance)

		// First reading strictly after the window end.
		i := sort.Search(len(rs), func(i int) bool { return rs[i].At.After(latest) })
		if i == 0 {
			continue
		}
		r := rs[i-1]
		if r.At.Before(earliest) {
			continue
		}
		out = append(out, model.CorrelationRecord{
			Predictor:  r.Value,
			Outcome:    o.Positive,
			ObservedAt: r.At,
		})
	}
	return out
}
