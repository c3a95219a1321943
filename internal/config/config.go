package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EngineConfig holds the tunables of the decision, propagation and
// correlation engines. It is passed into every scoring call; nothing in the
// engines reads global state.
type EngineConfig struct {
	HighRiskThreshold  float64       `yaml:"high_risk_threshold" mapstructure:"high_risk_threshold" json:"high_risk_threshold"`
	PropagationDecay   float64       `yaml:"propagation_decay" mapstructure:"propagation_decay" json:"propagation_decay"`
	LagDuration        time.Duration `yaml:"lag_duration" mapstructure:"lag_duration" json:"lag_duration"`
	LagTolerance       time.Duration `yaml:"lag_tolerance" mapstructure:"lag_tolerance" json:"lag_tolerance"`
	DangerZoneMultiple float64       `yaml:"danger_zone_multiple" mapstructure:"danger_zone_multiple" json:"danger_zone_multiple"`
	CorrelationBuckets []float64     `yaml:"correlation_buckets" mapstructure:"correlation_buckets" json:"correlation_buckets"`
	PredictorUnit      string        `yaml:"predictor_unit" mapstructure:"predictor_unit" json:"predictor_unit"`
}

// PricingConfig holds downtime pricing used to build cost profiles from
// failure statistics.
type PricingConfig struct {
	DowntimePerHour        map[string]float64 `yaml:"downtime_per_hour" mapstructure:"downtime_per_hour"`
	DefaultDowntimePerHour float64            `yaml:"default_downtime_per_hour" mapstructure:"default_downtime_per_hour"`
}

// ScoringConfig configures the scoring cycle.
type ScoringConfig struct {
	IntervalSecs        int    `yaml:"interval_secs" mapstructure:"interval_secs"`
	HistoryWindowHours  int    `yaml:"history_window_hours" mapstructure:"history_window_hours"`
	FallbackToReference bool   `yaml:"fallback_to_reference" mapstructure:"fallback_to_reference"`
	TopologyFile        string `yaml:"topology_file" mapstructure:"topology_file"`
	RetryAttempts       int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs      int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerThreshold    int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs    int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// MonitoringConfig configures maintenance alerts.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultEngineConfig returns the engine defaults: URGENT at p_fail >= 0.25,
// 10% attenuation per hop, a 6h humidity-to-scrap lag, and danger at twice
// the baseline scrap rate.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HighRiskThreshold:  0.25,
		PropagationDecay:   0.9,
		LagDuration:        6 * time.Hour,
		LagTolerance:       30 * time.Minute,
		DangerZoneMultiple: 2.0,
		CorrelationBuckets: []float64{55, 60, 65, 70},
		PredictorUnit:      "%",
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	eng := DefaultEngineConfig()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pdm.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("engine.high_risk_threshold", eng.HighRiskThreshold)
	v.SetDefault("engine.propagation_decay", eng.PropagationDecay)
	v.SetDefault("engine.lag_duration", eng.LagDuration.String())
	v.SetDefault("engine.lag_tolerance", eng.LagTolerance.String())
	v.SetDefault("engine.danger_zone_multiple", eng.DangerZoneMultiple)
	v.SetDefault("engine.correlation_buckets", eng.CorrelationBuckets)
	v.SetDefault("engine.predictor_unit", eng.PredictorUnit)
	v.SetDefault("pricing.downtime_per_hour", map[string]float64{
		"ENVIRONMENT": 15000,
		"AUTOCLAVE":   15000,
		"CNC":         8000,
		"ROBOT":       5000,
		"QC":          5000,
	})
	v.SetDefault("pricing.default_downtime_per_hour", 5000)
	v.SetDefault("scoring.interval_secs", 300)
	v.SetDefault("scoring.history_window_hours", 24*30)
	v.SetDefault("scoring.fallback_to_reference", false)
	v.SetDefault("scoring.retry_attempts", 3)
	v.SetDefault("scoring.retry_backoff_ms", 500)
	v.SetDefault("scoring.breaker_threshold", 5)
	v.SetDefault("scoring.breaker_reset_secs", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration required by a command mode:
// "engine" (pure computations), "store" (engine + database), or "serve"
// (store + HTTP server).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "engine":
	case "store", "serve":
		errs = append(errs, c.Store.problems()...)
		if c.Scoring.IntervalSecs <= 0 {
			errs = append(errs, "scoring.interval_secs must be > 0")
		}
		if c.Scoring.HistoryWindowHours < 0 {
			errs = append(errs, "scoring.history_window_hours must be >= 0")
		}
		if c.Scoring.RetryAttempts < 1 {
			errs = append(errs, "scoring.retry_attempts must be >= 1")
		}
		if mode == "serve" {
			if c.Server.Port <= 0 || c.Server.Port > 65535 {
				errs = append(errs, "server.port must be > 0 and <= 65535")
			}
			if c.Server.RateLimitRPS < 0 {
				errs = append(errs, "server.rate_limit_rps must be >= 0")
			}
			if t := c.Monitoring.FailureRateThreshold; math.IsNaN(t) || t < 0 || t > 1 {
				errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.Engine.problems()...)
	if c.Pricing.DefaultDowntimePerHour < 0 {
		errs = append(errs, "pricing.default_downtime_per_hour must be >= 0")
	}
	for k, rate := range c.Pricing.DowntimePerHour {
		if rate < 0 {
			errs = append(errs, fmt.Sprintf("pricing.downtime_per_hour.%s must be >= 0", k))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks that an EngineConfig is internally consistent.
func (e EngineConfig) Validate() error {
	if errs := e.problems(); len(errs) > 0 {
		return eris.Errorf("config: engine validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (e EngineConfig) problems() []string {
	var errs []string
	if math.IsNaN(e.HighRiskThreshold) || e.HighRiskThreshold < 0 || e.HighRiskThreshold > 1 {
		errs = append(errs, "engine.high_risk_threshold must be between 0 and 1")
	}
	if math.IsNaN(e.PropagationDecay) || e.PropagationDecay <= 0 || e.PropagationDecay > 1 {
		errs = append(errs, "engine.propagation_decay must be in (0,1]")
	}
	if e.LagDuration < 0 {
		errs = append(errs, "engine.lag_duration must be >= 0")
	}
	if e.LagTolerance < 0 {
		errs = append(errs, "engine.lag_tolerance must be >= 0")
	}
	if math.IsNaN(e.DangerZoneMultiple) || e.DangerZoneMultiple <= 0 {
		errs = append(errs, "engine.danger_zone_multiple must be > 0")
	}
	if len(e.CorrelationBuckets) == 0 {
		errs = append(errs, "engine.correlation_buckets must not be empty")
	}
	for i := 1; i < len(e.CorrelationBuckets); i++ {
		if !(e.CorrelationBuckets[i] > e.CorrelationBuckets[i-1]) {
			errs = append(errs, "engine.correlation_buckets must be strictly increasing")
			break
		}
	}
	return errs
}

func (s StoreConfig) problems() []string {
	var errs []string
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", s.Driver))
	}
	if s.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
