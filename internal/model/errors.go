package model

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input to a pure engine function.
// Retrying the same input cannot succeed.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ConfigError reports a structural problem with an asset graph. The graph
// instance is unusable; callers must rebuild it.
type ConfigError struct {
	Asset  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Asset == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: asset %s: %s", e.Asset, e.Reason)
}

// NewConfigError builds a ConfigError.
func NewConfigError(asset, reason string) *ConfigError {
	return &ConfigError{Asset: asset, Reason: reason}
}

// IsValidation returns true if err (or any error in its chain) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfig returns true if err (or any error in its chain) is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
