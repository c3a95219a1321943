package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/snowcore/pdm-cli/internal/db"
	"github.com/snowcore/pdm-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	costProfilesTable       = "cost_profiles"
	anomalyScoresTable      = "anomaly_scores"
	correlationRecordsTable = "correlation_records"
)

var (
	costProfileColumns = []string{
		"asset_id", "asset_type", "p_fail", "confidence",
		"unplanned_downtime_hours", "cost_per_downtime_hour", "repair_cost", "scrap_risk_cost",
		"pm_downtime_hours", "pm_labor_cost", "pm_parts_cost", "key_drivers", "updated_at",
	}
	anomalyScoreColumns      = []string{"asset_id", "confidence", "updated_at"}
	correlationRecordColumns = []string{"predictor", "outcome", "observed_at"}
)

// Prepared statement names. Queries pass the name instead of the SQL text.
const (
	stmtListCostProfiles = "list_cost_profiles"
	stmtListConfidences  = "list_confidences"
	stmtGetCycle         = "get_cycle"
	stmtLatestCycle      = "latest_cycle"
)

// preparedStatements lists queries to prepare on each new connection for
// the read paths hit on every scoring cycle and API request.
var preparedStatements = map[string]string{
	stmtListCostProfiles: `SELECT asset_id, asset_type, p_fail, confidence, unplanned_downtime_hours, cost_per_downtime_hour, repair_cost, scrap_risk_cost, pm_downtime_hours, pm_labor_cost, pm_parts_cost, key_drivers FROM cost_profiles ORDER BY asset_id`,
	stmtListConfidences:  `SELECT asset_id, confidence FROM anomaly_scores`,
	stmtGetCycle:         `SELECT result FROM scoring_cycles WHERE id = $1`,
	stmtLatestCycle:      `SELECT result FROM scoring_cycles WHERE status = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cost_profiles (
	asset_id                 TEXT PRIMARY KEY,
	asset_type               TEXT NOT NULL,
	p_fail                   DOUBLE PRECISION NOT NULL CHECK (p_fail >= 0 AND p_fail <= 1),
	confidence               DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
	unplanned_downtime_hours DOUBLE PRECISION NOT NULL,
	cost_per_downtime_hour   DOUBLE PRECISION NOT NULL,
	repair_cost              DOUBLE PRECISION NOT NULL,
	scrap_risk_cost          DOUBLE PRECISION NOT NULL,
	pm_downtime_hours        DOUBLE PRECISION NOT NULL,
	pm_labor_cost            DOUBLE PRECISION NOT NULL,
	pm_parts_cost            DOUBLE PRECISION NOT NULL,
	key_drivers              JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS anomaly_scores (
	asset_id   TEXT PRIMARY KEY,
	confidence DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS correlation_records (
	id          BIGSERIAL PRIMARY KEY,
	predictor   DOUBLE PRECISION NOT NULL,
	outcome     BOOLEAN NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scoring_cycles (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL,
	fallback    BOOLEAN NOT NULL DEFAULT false,
	result      JSONB NOT NULL,
	error       TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	seq         BIGSERIAL
);

ALTER TABLE scoring_cycles ADD COLUMN IF NOT EXISTS seq BIGSERIAL;

CREATE INDEX IF NOT EXISTS idx_correlation_records_observed_at ON correlation_records(observed_at);
CREATE INDEX IF NOT EXISTS idx_scoring_cycles_created_seq ON scoring_cycles(created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_scoring_cycles_status ON scoring_cycles(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceCostProfiles(ctx context.Context, profiles []model.CostProfile) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(profiles))
	for _, p := range profiles {
		drivers, err := json.Marshal(nonNil(p.KeyDrivers))
		if err != nil {
			return eris.Wrap(err, "postgres: marshal key drivers")
		}
		rows = append(rows, []any{
			p.AssetID, string(p.AssetType), p.PFail, p.Confidence,
			p.UnplannedDowntimeHours, p.CostPerDowntimeHour, p.RepairCost, p.ScrapRiskCost,
			p.PMDowntimeHours, p.PMLaborCost, p.PMPartsCost, drivers, now,
		})
	}
	_, err := db.ReplaceAll(ctx, s.pool, costProfilesTable, costProfileColumns, rows)
	return eris.Wrap(err, "postgres: replace cost profiles")
}

func (s *PostgresStore) ListCostProfiles(ctx context.Context) ([]model.CostProfile, error) {
	rows, err := s.pool.Query(ctx, stmtListCostProfiles)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cost profiles")
	}
	defer rows.Close()

	var out []model.CostProfile
	for rows.Next() {
		var p model.CostProfile
		var assetType string
		var drivers []byte
		if err := rows.Scan(&p.AssetID, &assetType, &p.PFail, &p.Confidence,
			&p.UnplannedDowntimeHours, &p.CostPerDowntimeHour, &p.RepairCost, &p.ScrapRiskCost,
			&p.PMDowntimeHours, &p.PMLaborCost, &p.PMPartsCost, &drivers); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cost profile")
		}
		p.AssetType = model.AssetType(assetType)
		if len(drivers) > 0 {
			if err := json.Unmarshal(drivers, &p.KeyDrivers); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal key drivers for %s", p.AssetID)
			}
		}
		if len(p.KeyDrivers) == 0 {
			p.KeyDrivers = nil
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list cost profiles iterate")
}

func (s *PostgresStore) ReplaceConfidences(ctx context.Context, confidences map[string]float64) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(confidences))
	for id, c := range confidences {
		rows = append(rows, []any{id, c, now})
	}
	_, err := db.ReplaceAll(ctx, s.pool, anomalyScoresTable, anomalyScoreColumns, rows)
	return eris.Wrap(err, "postgres: replace confidences")
}

func (s *PostgresStore) ListConfidences(ctx context.Context) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, stmtListConfidences)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list confidences")
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var c float64
		if err := rows.Scan(&id, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: scan confidence")
		}
		out[id] = c
	}
	return out, eris.Wrap(rows.Err(), "postgres: list confidences iterate")
}

func (s *PostgresStore) AppendCorrelationRecords(ctx context.Context, records []model.CorrelationRecord) (int, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Predictor, r.Outcome, observedAt(r)})
	}
	n, err := db.CopyFrom(ctx, s.pool, correlationRecordsTable, correlationRecordColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: append correlation records")
	}
	return int(n), nil
}

func (s *PostgresStore) ListCorrelationRecords(ctx context.Context, since time.Time) ([]model.CorrelationRecord, error) {
	query := `SELECT predictor, outcome, observed_at FROM correlation_records`
	var args []any
	if !since.IsZero() {
		query += ` WHERE observed_at >= $1`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY observed_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list correlation records")
	}
	defer rows.Close()

	var out []model.CorrelationRecord
	for rows.Next() {
		var r model.CorrelationRecord
		if err := rows.Scan(&r.Predictor, &r.Outcome, &r.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan correlation record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list correlation records iterate")
}

func (s *PostgresStore) SaveCycle(ctx context.Context, cycle *model.CycleResult) error {
	resultJSON, err := json.Marshal(cycle)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cycle")
	}

	var errText *string
	if cycle.Error != "" {
		errText = &cycle.Error
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scoring_cycles (id, status, fallback, result, error, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cycle.ID, string(cycle.Status), cycle.Fallback, resultJSON, errText, cycle.DurationMs, cycle.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert cycle %s", cycle.ID)
}

func (s *PostgresStore) GetCycle(ctx context.Context, id string) (*model.CycleResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx, stmtGetCycle, id).Scan(&resultJSON)
	return decodeCycle(resultJSON, err, id)
}

func (s *PostgresStore) LatestCycle(ctx context.Context) (*model.CycleResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx, stmtLatestCycle, string(model.CycleStatusComplete)).Scan(&resultJSON)
	return decodeCycle(resultJSON, err, "")
}

func (s *PostgresStore) ListCycles(ctx context.Context, filter CycleFilter) ([]model.CycleResult, error) {
	query := `SELECT result FROM scoring_cycles WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, seq DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cycles")
	}
	defer rows.Close()

	var cycles []model.CycleResult
	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cycle")
		}
		c, err := decodeCycle(resultJSON, nil, "")
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, *c)
	}
	return cycles, eris.Wrap(rows.Err(), "postgres: list cycles iterate")
}

func decodeCycle(resultJSON []byte, scanErr error, id string) (*model.CycleResult, error) {
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "cycle", ID: id}
	}
	if scanErr != nil {
		return nil, eris.Wrapf(scanErr, "postgres: get cycle %s", id)
	}

	var c model.CycleResult
	if err := json.Unmarshal(resultJSON, &c); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cycle")
	}
	return &c, nil
}
