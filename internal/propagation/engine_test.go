package propagation

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/model"
)

// rawTopology is an unvalidated topology used to reach states that
// graph.New refuses to build.
type rawTopology struct {
	ids   []string
	edges []model.Edge
}

func (r rawTopology) Order() ([]string, error) { return graph.Sort(r.ids, r.edges) }
func (r rawTopology) Edges() []model.Edge      { return r.edges }
func (r rawTopology) Upstream(id string) []string {
	var out []string
	for _, e := range r.edges {
		if e.Target == id {
			out = append(out, e.Source)
		}
	}
	return out
}

// fixedOrder reports a caller-supplied order without checking it.
type fixedOrder struct {
	rawTopology
	order []string
}

func (f fixedOrder) Order() ([]string, error) { return f.order, nil }

func chain(t *testing.T, ids ...string) *graph.Graph {
	t.Helper()
	assets := make([]model.Asset, 0, len(ids))
	var edges []model.Edge
	for i, id := range ids {
		assets = append(assets, model.Asset{ID: id, Type: model.AssetTypeCNC})
		if i > 0 {
			edges = append(edges, model.Edge{Source: ids[i-1], Target: id, Kind: model.EdgeKindFlow})
		}
	}
	g, err := graph.New(assets, edges)
	require.NoError(t, err)
	return g
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(0.9)
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name    string
		decay   float64
		wantErr bool
	}{
		{"default", 0.9, false},
		{"one", 1, false},
		{"tiny", 1e-9, false},
		{"zero", 0, true},
		{"negative", -0.5, true},
		{"above one", 1.1, true},
		{"nan", math.NaN(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.decay)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, model.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.decay, e.Decay())
		})
	}
}

func TestPropagate_Chain(t *testing.T) {
	g := chain(t, "LAYUP_ROOM", "AUTOCLAVE_01", "CNC_MILL_01")
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{
		"LAYUP_ROOM":   0.8,
		"AUTOCLAVE_01": 0,
		"CNC_MILL_01":  0,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.8, impact["LAYUP_ROOM"], 1e-12)
	assert.InDelta(t, 0.72, impact["AUTOCLAVE_01"], 1e-12)
	assert.InDelta(t, 0.648, impact["CNC_MILL_01"], 1e-12)
}

func TestPropagate_SingleHop(t *testing.T) {
	tests := []struct {
		name  string
		decay float64
		conf  float64
	}{
		{"default decay", 0.9, 0.5},
		{"no decay", 1, 0.3},
		{"strong decay", 0.1, 1},
		{"healthy source", 0.9, 0},
	}
	g := chain(t, "SRC", "DST")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.decay)
			require.NoError(t, err)
			impact, err := e.Propagate(g, map[string]float64{"SRC": tt.conf, "DST": 0})
			require.NoError(t, err)
			assert.InDelta(t, tt.decay*tt.conf, impact["DST"], 1e-12)
		})
	}
}

func TestPropagate_OwnConfidenceWins(t *testing.T) {
	g := chain(t, "A", "B")
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{"A": 0.5, "B": 0.95})
	require.NoError(t, err)
	assert.InDelta(t, 0.95, impact["B"], 1e-12)
}

func TestPropagate_MissingConfidenceDefaultsToZero(t *testing.T) {
	g := chain(t, "A", "B", "C")
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{})
	require.NoError(t, err)
	require.Len(t, impact, 3)
	for id, v := range impact {
		assert.Equal(t, 0.0, v, id)
	}

	// An omitted downstream asset is healthy, not an error.
	impact, err = e.Propagate(g, map[string]float64{"A": 0.6})
	require.NoError(t, err)
	assert.InDelta(t, 0.54, impact["B"], 1e-12)
	assert.Equal(t, 0.0, ConfidenceOf(map[string]float64{"A": 0.6}, "B"))
}

func TestPropagate_UnknownAssetIgnored(t *testing.T) {
	g := chain(t, "A", "B")
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{"A": 0.5, "GHOST": 7})
	require.NoError(t, err)
	assert.NotContains(t, impact, "GHOST")
}

func TestPropagate_InvalidConfidence(t *testing.T) {
	g := chain(t, "A", "B")
	e := newTestEngine(t)

	for _, c := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := e.Propagate(g, map[string]float64{"A": c})
		require.Error(t, err)
		assert.True(t, model.IsValidation(err))
	}
}

func TestPropagate_FanIn(t *testing.T) {
	g, err := graph.New(
		[]model.Asset{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		[]model.Edge{
			{Source: "A", Target: "C", Kind: model.EdgeKindFlow},
			{Source: "B", Target: "C", Kind: model.EdgeKindEnv},
		},
	)
	require.NoError(t, err)
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{"A": 0.9, "B": 0.9})
	require.NoError(t, err)
	// Worst upstream wins; contributions do not accumulate.
	assert.InDelta(t, 0.81, impact["C"], 1e-12)
}

func TestPropagate_Reference(t *testing.T) {
	g, err := graph.Reference()
	require.NoError(t, err)
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{"LAYUP_ROOM": 0.8})
	require.NoError(t, err)
	assert.Len(t, impact, g.Len())
	assert.InDelta(t, 0.8, impact["LAYUP_ROOM"], 1e-12)
	for _, id := range g.Downstream("LAYUP_ROOM") {
		assert.InDelta(t, 0.72, impact[id], 1e-12, id)
	}
}

func TestPropagate_Cycle(t *testing.T) {
	edges := []model.Edge{
		{Source: "A", Target: "B", Kind: model.EdgeKindFlow},
		{Source: "B", Target: "A", Kind: model.EdgeKindFlow},
	}

	_, err := graph.New([]model.Asset{{ID: "A"}, {ID: "B"}}, edges)
	require.Error(t, err)
	assert.True(t, model.IsConfig(err))

	e := newTestEngine(t)
	_, err = e.Propagate(rawTopology{ids: []string{"A", "B"}, edges: edges}, map[string]float64{"A": 0.5})
	require.Error(t, err)
	assert.True(t, model.IsConfig(err))
}

func TestPropagate_OrderViolation(t *testing.T) {
	topo := fixedOrder{
		rawTopology: rawTopology{
			ids:   []string{"A", "B"},
			edges: []model.Edge{{Source: "A", Target: "B", Kind: model.EdgeKindFlow}},
		},
		order: []string{"B", "A"},
	}
	e := newTestEngine(t)

	_, err := e.Propagate(topo, nil)
	require.Error(t, err)
	assert.True(t, model.IsConfig(err))
}

func TestStates(t *testing.T) {
	g := chain(t, "LAYUP_ROOM", "AUTOCLAVE_01")
	e := newTestEngine(t)

	states, err := e.States(g, map[string]float64{"LAYUP_ROOM": 0.8})
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "LAYUP_ROOM", states[0].AssetID)
	assert.Equal(t, 0.8, states[0].Confidence)
	assert.Equal(t, "AUTOCLAVE_01", states[1].AssetID)
	assert.Equal(t, 0.0, states[1].Confidence)
	assert.InDelta(t, 0.72, states[1].Impact, 1e-12)
}

func TestEdgeWeights(t *testing.T) {
	g := chain(t, "A", "B", "C")
	weights := EdgeWeights(g, map[string]float64{"A": 0.2, "B": 0.6, "C": 0.1})
	require.Len(t, weights, 2)

	byEdge := map[[2]string]float64{}
	for _, w := range weights {
		byEdge[[2]string{w.Source, w.Target}] = w.Weight
	}
	assert.Equal(t, 0.6, byEdge[[2]string{"A", "B"}])
	assert.Equal(t, 0.6, byEdge[[2]string{"B", "C"}])
}

func TestRisks(t *testing.T) {
	g := chain(t, "LAYUP_ROOM", "AUTOCLAVE_01", "CNC_MILL_01")
	e := newTestEngine(t)

	impact, err := e.Propagate(g, map[string]float64{"LAYUP_ROOM": 0.8})
	require.NoError(t, err)

	risks := e.Risks(g, impact)
	require.Len(t, risks, 2)

	assert.Equal(t, "AUTOCLAVE_01", risks[0].AssetID)
	assert.Equal(t, "LAYUP_ROOM", risks[0].SourceAsset)
	assert.InDelta(t, 0.72, risks[0].Score, 1e-12)
	assert.Equal(t, model.RiskLevelHigh, risks[0].Level)

	assert.Equal(t, "CNC_MILL_01", risks[1].AssetID)
	assert.InDelta(t, 0.648, risks[1].Score, 1e-12)
	assert.Equal(t, model.RiskLevelMedium, risks[1].Level)

	assert.Empty(t, e.Risks(g, map[string]float64{}))
}

func TestLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{1, model.RiskLevelHigh},
		{0.7, model.RiskLevelHigh},
		{0.69, model.RiskLevelMedium},
		{0.4, model.RiskLevelMedium},
		{0.39, model.RiskLevelLow},
		{0, model.RiskLevelLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.score), "score %v", tt.score)
	}
}

func TestPropagationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	g, err := graph.Reference()
	require.NoError(t, err)
	order, err := g.Order()
	require.NoError(t, err)

	confs := func(vals []float64) map[string]float64 {
		m := make(map[string]float64, len(order))
		for i, id := range order {
			if i < len(vals) {
				m[id] = vals[i]
			}
		}
		return m
	}

	properties.Property("impact stays within [0,1]", prop.ForAll(
		func(decay float64, vals []float64) bool {
			e, err := NewEngine(decay)
			if err != nil {
				return false
			}
			impact, err := e.Propagate(g, confs(vals))
			if err != nil {
				return false
			}
			for _, v := range impact {
				if v < 0 || v > 1 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.01, 1),
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.Property("propagate is idempotent", prop.ForAll(
		func(decay float64, vals []float64) bool {
			e, err := NewEngine(decay)
			if err != nil {
				return false
			}
			in := confs(vals)
			first, err1 := e.Propagate(g, in)
			second, err2 := e.Propagate(g, in)
			if err1 != nil || err2 != nil || len(first) != len(second) {
				return false
			}
			for id, v := range first {
				if math.Float64bits(v) != math.Float64bits(second[id]) {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.01, 1),
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.Property("impact is at least own confidence", prop.ForAll(
		func(vals []float64) bool {
			e, _ := NewEngine(0.9)
			in := confs(vals)
			impact, err := e.Propagate(g, in)
			if err != nil {
				return false
			}
			for id, c := range in {
				if impact[id] < c {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}
