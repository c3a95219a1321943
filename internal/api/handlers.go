package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/decision"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/propagation"
)

type cycleInfo struct {
	CycleID   string    `json:"cycle_id"`
	CreatedAt time.Time `json:"created_at"`
	Fallback  bool      `json:"fallback"`
}

func infoOf(c *model.CycleResult) *cycleInfo {
	return &cycleInfo{CycleID: c.ID, CreatedAt: c.CreatedAt, Fallback: c.Fallback}
}

type decisionsResponse struct {
	Cycle     *cycleInfo               `json:"cycle,omitempty"`
	Decisions []model.Decision         `json:"decisions"`
	Summary   decision.Summary         `json:"summary"`
	Frontier  []decision.FrontierPoint `json:"frontier"`
}

func newDecisionsResponse(decisions []model.Decision) decisionsResponse {
	return decisionsResponse{
		Decisions: decisions,
		Summary:   decision.Summarize(decisions),
		Frontier:  decision.Frontier(decisions),
	}
}

type propagationResponse struct {
	Cycle       *cycleInfo               `json:"cycle,omitempty"`
	Assets      []model.Asset            `json:"assets,omitempty"`
	States      []model.PropagationState `json:"states"`
	Risks       []model.PropagationRisk  `json:"risks"`
	EdgeWeights []model.EdgeWeight       `json:"edge_weights"`
}

type correlationResponse struct {
	Cycle          *cycleInfo                `json:"cycle,omitempty"`
	Buckets        []model.CorrelationBucket `json:"buckets"`
	Baseline       *float64                  `json:"baseline_rate"`
	Records        int                       `json:"records,omitempty"`
	Classification *correlation.DangerZone   `json:"classification,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*model.CycleResult, bool) {
	c, err := s.store.LatestCycle(r.Context())
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return c, true
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	c, ok := s.latest(w, r)
	if !ok {
		return
	}
	resp := newDecisionsResponse(c.Decisions)
	resp.Cycle = infoOf(c)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePropagation(w http.ResponseWriter, r *http.Request) {
	c, ok := s.latest(w, r)
	if !ok {
		return
	}
	resp := propagationResponse{
		Cycle:       infoOf(c),
		States:      c.States,
		Risks:       c.Risks,
		EdgeWeights: c.EdgeWeights,
	}
	if s.topo != nil {
		resp.Assets = s.topo.Assets()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCorrelation returns the latest buckets. A "value" query parameter
// additionally classifies that live reading against them.
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var value *float64
	if raw := r.URL.Query().Get("value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, model.NewValidationError("value", raw, "must be a number"))
			return
		}
		value = &v
	}

	c, ok := s.latest(w, r)
	if !ok {
		return
	}
	resp := correlationResponse{
		Cycle:    infoOf(c),
		Buckets:  c.Buckets,
		Baseline: correlation.Baseline(c.Buckets),
	}
	if value != nil {
		dz, err := correlation.Classify(*value, c.Buckets, s.engine.DangerZoneMultiple)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Classification = &dz
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCycle returns one stored cycle by id, whatever its status.
func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCycle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg := s.engine
	if req.HighRiskThreshold != nil {
		cfg.HighRiskThreshold = *req.HighRiskThreshold
	}
	engine, err := decision.NewEngine(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	profiles := make([]model.CostProfile, 0, len(req.Profiles))
	for _, p := range req.Profiles {
		profiles = append(profiles, p.profile())
	}
	decisions, err := engine.DecideAll(profiles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDecisionsResponse(decisions))
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	var req propagateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	topo := s.topo
	if len(req.Assets) > 0 || len(req.Edges) > 0 {
		g, err := graph.New(req.topology())
		if err != nil {
			writeError(w, err)
			return
		}
		topo = g
	}
	if topo == nil {
		writeError(w, model.NewValidationError("assets", nil, "no topology configured; provide assets and edges"))
		return
	}

	decay := s.engine.PropagationDecay
	if req.Decay != nil {
		decay = *req.Decay
	}
	engine, err := propagation.NewEngine(decay)
	if err != nil {
		writeError(w, err)
		return
	}

	states, err := engine.States(topo, req.Confidences)
	if err != nil {
		writeError(w, err)
		return
	}
	impacts := make(map[string]float64, len(states))
	for _, st := range states {
		impacts[st.AssetID] = st.Impact
	}
	risks := engine.Risks(topo, impacts)
	if risks == nil {
		risks = []model.PropagationRisk{}
	}
	writeJSON(w, http.StatusOK, propagationResponse{
		Assets:      topo.Assets(),
		States:      states,
		Risks:       risks,
		EdgeWeights: propagation.EdgeWeights(topo, impacts),
	})
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	var req correlateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg := s.engine
	if len(req.Boundaries) > 0 {
		cfg.CorrelationBuckets = req.Boundaries
	}
	if req.Multiple != nil {
		cfg.DangerZoneMultiple = *req.Multiple
	}
	a, err := correlation.NewAnnotator(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	records := req.Records
	if len(req.Readings) > 0 && len(req.Outcomes) > 0 {
		records = append(records, a.Pair(req.Readings, req.Outcomes)...)
	}
	buckets, err := a.Annotate(records)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := correlationResponse{
		Buckets:  buckets,
		Baseline: correlation.Baseline(buckets),
		Records:  len(records),
	}
	if req.Value != nil {
		dz, err := a.Classify(*req.Value, buckets)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Classification = &dz
	}
	writeJSON(w, http.StatusOK, resp)
}
