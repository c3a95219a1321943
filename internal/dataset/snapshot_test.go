package dataset

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/model"
)

const sampleYAML = `
assets:
  - id: LAYUP_ROOM
    type: ENVIRONMENT
  - id: AUTOCLAVE_01
    type: AUTOCLAVE
  - id: CNC_MILL_01
    type: CNC
edges:
  - {source: LAYUP_ROOM, target: AUTOCLAVE_01, kind: ENV}
  - {source: AUTOCLAVE_01, target: CNC_MILL_01, kind: FLOW}
profiles:
  - asset_id: AUTOCLAVE_01
    asset_type: AUTOCLAVE
    p_fail: 0.32
    confidence: 0.9
    unplanned_downtime_hours: 10
    cost_per_downtime_hour: 15000
    repair_cost: 20000
    scrap_risk_cost: 50000
    pm_downtime_hours: 2
    pm_labor_cost: 8000
    pm_parts_cost: 10000
failure_stats:
  - asset_id: CNC_MILL_01
    asset_type: CNC
    p_fail: 0.1
    confidence: 0.6
    unplanned_downtime_hours_avg: 4
    repair_cost_avg: 5000
    pm_downtime_hours_avg: 1
confidences:
  LAYUP_ROOM: 0.8
records:
  - {predictor: 72, outcome: true}
readings:
  - {at: 2026-03-01T00:00:00Z, value: 50}
outcomes:
  - {at: 2026-03-01T06:00:00Z, positive: false}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Len(t, s.Assets, 3)
	assert.Equal(t, model.AssetTypeAutoclave, s.Assets[1].Type)
	assert.Len(t, s.Edges, 2)
	assert.Equal(t, model.EdgeKindEnv, s.Edges[0].Kind)
	assert.Equal(t, 0.8, s.Confidences["LAYUP_ROOM"])
	require.Len(t, s.Readings, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.Readings[0].At.UTC())

	g, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	calc := cost.NewCalculator(cost.DefaultRates())
	profiles, err := s.CostProfiles(calc)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "AUTOCLAVE_01", profiles[0].AssetID)
	assert.Equal(t, "CNC_MILL_01", profiles[1].AssetID)
	assert.Equal(t, 8000.0, profiles[1].CostPerDowntimeHour)

	a, err := correlation.NewAnnotator(config.DefaultEngineConfig())
	require.NoError(t, err)
	records := s.CorrelationRecords(a)
	require.Len(t, records, 2)
	assert.Equal(t, 72.0, records[0].Predictor)
	assert.Equal(t, 50.0, records[1].Predictor)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("assets: [unterminated"))
	assert.Error(t, err)

	_, err = Parse([]byte("bogus_field: 1\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)

	g, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, 9, g.Len(), "empty snapshot uses the reference topology")
}

func TestGraph_Invalid(t *testing.T) {
	s := &Snapshot{
		Assets: []model.Asset{{ID: "A"}},
		Edges:  []model.Edge{{Source: "A", Target: "MISSING", Kind: model.EdgeKindFlow}},
	}
	_, err := s.Graph()
	require.Error(t, err)
	assert.True(t, model.IsConfig(err))
}

func TestCostProfiles_InvalidStats(t *testing.T) {
	s := &Snapshot{FailureStats: []cost.FailureStats{{AssetID: "X", PFail: 2}}}
	_, err := s.CostProfiles(cost.NewCalculator(cost.DefaultRates()))
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestWriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	ref := Reference(48, 6*time.Hour)
	require.NoError(t, Write(path, ref))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ref.Assets, got.Assets)
	assert.Equal(t, ref.Profiles, got.Profiles)
	assert.Equal(t, ref.Confidences, got.Confidences)
	assert.Len(t, got.Readings, 48)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReference(t *testing.T) {
	s := Reference(240, 6*time.Hour)

	g, err := s.Graph()
	require.NoError(t, err)
	for id := range s.Confidences {
		_, ok := g.Asset(id)
		assert.True(t, ok, id)
	}

	a, err := correlation.NewAnnotator(config.DefaultEngineConfig())
	require.NoError(t, err)
	records := s.CorrelationRecords(a)
	assert.Len(t, records, 240, "every outcome pairs with the reading lag earlier")

	buckets, err := a.Annotate(records)
	require.NoError(t, err)
	for _, b := range buckets {
		assert.NotNil(t, b.Rate, b.Label)
	}
}

func TestReferenceHistory_Deterministic(t *testing.T) {
	r1, o1 := ReferenceHistory(100, time.Hour)
	r2, o2 := ReferenceHistory(100, time.Hour)
	assert.Equal(t, r1, r2)
	assert.Equal(t, o1, o2)
	assert.Equal(t, r1[10].At.Add(time.Hour), o1[10].At)
}
