package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// profilePayload is a cost profile as accepted by POST /api/decide.
type profilePayload struct {
	AssetID                string          `json:"asset_id" validate:"required,max=128"`
	AssetType              model.AssetType `json:"asset_type" validate:"omitempty,oneof=ENVIRONMENT ROBOT AUTOCLAVE CNC QC"`
	PFail                  float64         `json:"p_fail" validate:"gte=0,lte=1"`
	Confidence             float64         `json:"confidence" validate:"gte=0,lte=1"`
	UnplannedDowntimeHours float64         `json:"unplanned_downtime_hours" validate:"gte=0"`
	CostPerDowntimeHour    float64         `json:"cost_per_downtime_hour" validate:"gte=0"`
	RepairCost             float64         `json:"repair_cost" validate:"gte=0"`
	ScrapRiskCost          float64         `json:"scrap_risk_cost" validate:"gte=0"`
	PMDowntimeHours        float64         `json:"pm_downtime_hours" validate:"gte=0"`
	PMLaborCost            float64         `json:"pm_labor_cost" validate:"gte=0"`
	PMPartsCost            float64         `json:"pm_parts_cost" validate:"gte=0"`
	KeyDrivers             []string        `json:"key_drivers" validate:"omitempty,max=20,dive,max=256"`
}

func (p profilePayload) profile() model.CostProfile {
	return model.CostProfile{
		AssetID:                p.AssetID,
		AssetType:              p.AssetType,
		PFail:                  p.PFail,
		Confidence:             p.Confidence,
		UnplannedDowntimeHours: p.UnplannedDowntimeHours,
		CostPerDowntimeHour:    p.CostPerDowntimeHour,
		RepairCost:             p.RepairCost,
		ScrapRiskCost:          p.ScrapRiskCost,
		PMDowntimeHours:        p.PMDowntimeHours,
		PMLaborCost:            p.PMLaborCost,
		PMPartsCost:            p.PMPartsCost,
		KeyDrivers:             p.KeyDrivers,
	}
}

type decideRequest struct {
	Profiles          []profilePayload `json:"profiles" validate:"required,min=1,max=1000,dive"`
	HighRiskThreshold *float64         `json:"high_risk_threshold" validate:"omitempty,gte=0,lte=1"`
}

type assetPayload struct {
	ID       string          `json:"id" validate:"required,max=128"`
	Type     model.AssetType `json:"type" validate:"required,oneof=ENVIRONMENT ROBOT AUTOCLAVE CNC QC"`
	Position model.Position  `json:"position"`
}

type edgePayload struct {
	Source string         `json:"source" validate:"required"`
	Target string         `json:"target" validate:"required"`
	Kind   model.EdgeKind `json:"kind" validate:"required,oneof=FLOW ENV"`
}

// propagateRequest evaluates confidences over the server topology, or over
// the given assets and edges when either is present. Edges only resolve
// against the assets of the same request.
type propagateRequest struct {
	Confidences map[string]float64 `json:"confidences" validate:"omitempty,dive,keys,required,endkeys,gte=0,lte=1"`
	Decay       *float64           `json:"decay" validate:"omitempty,gt=0,lte=1"`
	Assets      []assetPayload     `json:"assets" validate:"omitempty,max=10000,dive"`
	Edges       []edgePayload      `json:"edges" validate:"omitempty,max=50000,dive"`
}

func (r propagateRequest) topology() ([]model.Asset, []model.Edge) {
	assets := make([]model.Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, model.Asset{ID: a.ID, Type: a.Type, Position: a.Position})
	}
	edges := make([]model.Edge, 0, len(r.Edges))
	for _, e := range r.Edges {
		edges = append(edges, model.Edge{Source: e.Source, Target: e.Target, Kind: e.Kind})
	}
	return assets, edges
}

// correlateRequest annotates paired records, or readings and outcomes to be
// paired with the configured lag.
type correlateRequest struct {
	Records    []model.CorrelationRecord `json:"records" validate:"omitempty,max=100000"`
	Readings   []correlation.Reading     `json:"readings" validate:"omitempty,max=100000"`
	Outcomes   []correlation.Outcome     `json:"outcomes" validate:"omitempty,max=100000"`
	Boundaries []float64                 `json:"boundaries" validate:"omitempty,min=1,max=64"`
	Multiple   *float64                  `json:"danger_zone_multiple" validate:"omitempty,gt=0"`
	Value      *float64                  `json:"value"`
}

// decode reads a JSON body into v and validates it. Failures are returned as
// *model.ValidationError.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError("body", nil, "request body is empty")
		}
		return model.NewValidationError("body", nil, err.Error())
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts the first validator failure into a
// *model.ValidationError.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewValidationError("body", nil, err.Error())
	}

	e := verrs[0]
	var reason string
	switch e.Tag() {
	case "required":
		reason = "field is required"
	case "min":
		reason = fmt.Sprintf("must have at least %s entries", e.Param())
	case "max":
		reason = fmt.Sprintf("must not exceed %s", e.Param())
	case "gte":
		reason = "must be >= " + e.Param()
	case "lte":
		reason = "must be <= " + e.Param()
	case "gt":
		reason = "must be > " + e.Param()
	case "oneof":
		reason = "must be one of " + e.Param()
	default:
		reason = "failed " + e.Tag()
	}
	return model.NewValidationError(e.Namespace(), e.Value(), reason)
}
