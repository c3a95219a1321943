// Package scoring runs scoring cycles: load inputs from the store, evaluate
// all engines over one snapshot and persist the result.
package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/dataset"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/metrics"
	"github.com/snowcore/pdm-cli/internal/model"
	"github.com/snowcore/pdm-cli/internal/resilience"
	"github.com/snowcore/pdm-cli/internal/store"
)

// ErrNoProfiles is returned when the store holds no cost profiles and the
// reference fallback is disabled.
var ErrNoProfiles = eris.New("scoring: no cost profiles in store")

// Runner executes scoring cycles against a store.
type Runner struct {
	store   store.Store
	topo    *graph.Graph
	engines *Engines
	metrics *metrics.Registry
	cfg     config.ScoringConfig
	retry   resilience.RetryConfig
	breaker *resilience.Breaker

	// now allows test injection of time.
	now func() time.Time
}

// NewRunner builds a Runner. reg may be nil to skip metrics.
func NewRunner(st store.Store, topo *graph.Graph, cfg *config.Config, reg *metrics.Registry) (*Runner, error) {
	engines, err := NewEngines(cfg.Engine)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "scoring"))
	retry := resilience.RetryFromConfig(cfg.Scoring)
	retry.OnRetry = func(attempt int, err error) {
		resilience.RetryLogger("scoring", "store")(attempt, err)
		if reg != nil {
			reg.CycleRetries.Inc()
		}
	}
	bc := resilience.BreakerFromConfig(cfg.Scoring)
	bc.OnStateChange = func(from, to resilience.BreakerState) {
		log.Warn("store circuit breaker changed state",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	return &Runner{
		store:   st,
		topo:    topo,
		engines: engines,
		metrics: reg,
		cfg:     cfg.Scoring,
		retry:   retry,
		breaker: resilience.NewBreaker(bc),
		now:     time.Now,
	}, nil
}

// Topology returns the asset graph the runner scores.
func (r *Runner) Topology() *graph.Graph {
	return r.topo
}

// Engines returns the engines the runner evaluates with.
func (r *Runner) Engines() *Engines {
	return r.engines
}

// RunCycle loads inputs, evaluates every engine and saves the cycle. A
// failed cycle is still saved with status failed and its error message; the
// returned result is non-nil whenever a cycle was attempted.
func (r *Runner) RunCycle(ctx context.Context) (*model.CycleResult, error) {
	start := r.now()
	id := uuid.NewString()
	log := zap.L().With(
		zap.String("component", "scoring"),
		zap.String("cycle_id", id),
	)

	in, err := r.LoadInputs(ctx)
	var res *model.CycleResult
	if err == nil {
		res, err = r.engines.Evaluate(r.topo, in)
	}
	if res == nil {
		res = &model.CycleResult{}
	}

	res.ID = id
	res.Fallback = in.Fallback
	res.CreatedAt = start.UTC()
	duration := r.now().Sub(start)
	res.DurationMs = duration.Milliseconds()
	if err != nil {
		res.Status = model.CycleStatusFailed
		res.Error = err.Error()
	} else {
		res.Status = model.CycleStatusComplete
	}

	saveErr := r.call(ctx, func(ctx context.Context) error {
		return r.store.SaveCycle(ctx, res)
	})

	if r.metrics != nil {
		r.metrics.RecordCycle(res.Status, duration, res.Fallback)
		if res.Status == model.CycleStatusComplete {
			r.metrics.RecordResult(res)
		}
	}

	if err != nil {
		log.Error("scoring cycle failed",
			zap.String("error_kind", resilience.Classify(err)),
			zap.Error(err),
		)
		if saveErr != nil {
			log.Error("failed to save failed cycle", zap.Error(saveErr))
		}
		return res, eris.Wrap(err, "scoring: cycle")
	}
	if saveErr != nil {
		return res, eris.Wrap(saveErr, "scoring: save cycle")
	}

	log.Info("scoring cycle complete",
		zap.Int("decisions", len(res.Decisions)),
		zap.Int("risks", len(res.Risks)),
		zap.Int("records", len(in.Records)),
		zap.Bool("fallback", res.Fallback),
		zap.Int64("duration_ms", res.DurationMs),
	)
	return res, nil
}

// LoadInputs reads cost profiles, confidences and the correlation history
// window from the store. Transient errors are retried behind the breaker.
// An empty profile table fails with ErrNoProfiles unless the reference
// fallback is enabled.
func (r *Runner) LoadInputs(ctx context.Context) (Inputs, error) {
	var in Inputs

	profiles, err := callVal(ctx, r, r.store.ListCostProfiles)
	if err != nil {
		return in, eris.Wrap(err, "scoring: list cost profiles")
	}
	confidences, err := callVal(ctx, r, r.store.ListConfidences)
	if err != nil {
		return in, eris.Wrap(err, "scoring: list confidences")
	}
	// A zero window reads the whole history.
	var since time.Time
	if r.cfg.HistoryWindowHours > 0 {
		since = r.now().Add(-time.Duration(r.cfg.HistoryWindowHours) * time.Hour).UTC()
	}
	records, err := callVal(ctx, r, func(ctx context.Context) ([]model.CorrelationRecord, error) {
		return r.store.ListCorrelationRecords(ctx, since)
	})
	if err != nil {
		return in, eris.Wrap(err, "scoring: list correlation records")
	}

	if len(profiles) == 0 {
		if !r.cfg.FallbackToReference {
			return in, ErrNoProfiles
		}
		zap.L().Warn("scoring: no cost profiles in store, using reference table",
			zap.String("component", "scoring"),
		)
		profiles = cost.ReferenceProfiles()
		if len(confidences) == 0 {
			confidences = dataset.ReferenceConfidences()
		}
		in.Fallback = true
	}

	in.Profiles = profiles
	in.Confidences = confidences
	in.Records = records
	return in, nil
}

func (r *Runner) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return resilience.Do(ctx, r.retry, func(ctx context.Context) error {
		return r.breaker.Execute(ctx, fn)
	})
}

func callVal[T any](ctx context.Context, r *Runner, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, r.retry, func(ctx context.Context) (T, error) {
		return resilience.ExecuteVal(ctx, r.breaker, fn)
	})
}
