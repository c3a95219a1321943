package resilience

import (
	"time"

	"github.com/snowcore/pdm-cli/internal/config"
)

// RetryFromConfig builds the store retry policy from scoring settings.
// Zero values keep the defaults.
func RetryFromConfig(cfg config.ScoringConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		rc.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBackoffMs > 0 {
		rc.InitialBackoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	}
	return rc
}

// BreakerFromConfig builds the store breaker policy from scoring settings.
func BreakerFromConfig(cfg config.ScoringConfig) BreakerConfig {
	bc := DefaultBreakerConfig()
	if cfg.BreakerThreshold > 0 {
		bc.FailureThreshold = cfg.BreakerThreshold
	}
	if cfg.BreakerResetSecs > 0 {
		bc.ResetTimeout = time.Duration(cfg.BreakerResetSecs) * time.Second
	}
	return bc
}
