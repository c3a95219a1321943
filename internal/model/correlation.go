package model

import "time"

// CorrelationRecord pairs a lagged predictor value with a binary outcome,
// e.g. layup humidity at T and the scrap flag of the batch cured at T+lag.
type CorrelationRecord struct {
	Predictor  float64   `json:"predictor" yaml:"predictor"`
	Outcome    bool      `json:"outcome" yaml:"outcome"`
	ObservedAt time.Time `json:"observed_at,omitempty" yaml:"observed_at,omitempty"`
}

// CorrelationBucket is one predictor range with its observed outcome rate.
// Lower is inclusive and Upper exclusive; nil means unbounded. Rate is nil
// when the bucket holds no records.
type CorrelationBucket struct {
	Label     string   `json:"label"`
	Lower     *float64 `json:"lower"`
	Upper     *float64 `json:"upper"`
	Count     int      `json:"count"`
	Positives int      `json:"positives"`
	Rate      *float64 `json:"rate"`
	Danger    bool     `json:"danger"`
}

// Contains reports whether v falls inside the bucket range.
func (b CorrelationBucket) Contains(v float64) bool {
	if b.Lower != nil && v < *b.Lower {
		return false
	}
	if b.Upper != nil && v >= *b.Upper {
		return false
	}
	return true
}
