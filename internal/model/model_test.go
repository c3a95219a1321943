package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestCostProfile_DerivedTotals(t *testing.T) {
	p := CostProfile{
		AssetID:                "AUTOCLAVE_01",
		PFail:                  0.5,
		UnplannedDowntimeHours: 10,
		CostPerDowntimeHour:    15000,
		RepairCost:             20000,
		ScrapRiskCost:          50000,
		PMDowntimeHours:        2,
		PMLaborCost:            8000,
		PMPartsCost:            10000,
	}

	assert.Equal(t, 220000.0, p.UnplannedTotal())
	assert.Equal(t, 48000.0, p.PMTotal())
	assert.Equal(t, 110000.0, p.ExpectedUnplannedCost())
	assert.Equal(t, 62000.0, p.NetBenefit())
}

func TestCorrelationBucket_Contains(t *testing.T) {
	lo, hi := 55.0, 60.0
	tests := []struct {
		name   string
		bucket CorrelationBucket
		v      float64
		want   bool
	}{
		{"lower inclusive", CorrelationBucket{Lower: &lo, Upper: &hi}, 55, true},
		{"upper exclusive", CorrelationBucket{Lower: &lo, Upper: &hi}, 60, false},
		{"below", CorrelationBucket{Lower: &lo, Upper: &hi}, 54.9, false},
		{"unbounded below", CorrelationBucket{Upper: &lo}, -100, true},
		{"unbounded above", CorrelationBucket{Lower: &hi}, 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bucket.Contains(tt.v))
		})
	}
}

func TestErrorKinds_SurviveWrapping(t *testing.T) {
	verr := eris.Wrap(NewValidationError("p_fail", 1.2, "must be within [0,1]"), "decide")
	cerr := eris.Wrap(NewConfigError("A", "cycle detected"), "graph")

	assert.True(t, IsValidation(verr))
	assert.False(t, IsConfig(verr))
	assert.True(t, IsConfig(cerr))
	assert.False(t, IsValidation(cerr))
	assert.False(t, IsValidation(nil))
	assert.Contains(t, verr.Error(), "p_fail=1.2")
	assert.Contains(t, cerr.Error(), "asset A: cycle detected")
}

func TestAssetType_Valid(t *testing.T) {
	assert.True(t, AssetTypeAutoclave.Valid())
	assert.True(t, AssetTypeEnvironment.Valid())
	assert.False(t, AssetType("PUMP").Valid())
}
