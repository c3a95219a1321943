package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Asset string `json:"asset,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// statusFor maps an error to its HTTP status: validation 400, topology or
// configuration 422, missing entity 404, anything else 500.
func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case model.IsConfig(err):
		return http.StatusUnprocessableEntity
	case store.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *model.ValidationError
	var ce *model.ConfigError
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
	case errors.As(err, &ce):
		resp.Asset = ce.Asset
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.String("component", "api"), zap.Error(err))
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
