package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/snowcore/pdm-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cost_profiles (
	asset_id                 TEXT PRIMARY KEY,
	asset_type               TEXT NOT NULL,
	p_fail                   REAL NOT NULL,
	confidence               REAL NOT NULL,
	unplanned_downtime_hours REAL NOT NULL,
	cost_per_downtime_hour   REAL NOT NULL,
	repair_cost              REAL NOT NULL,
	scrap_risk_cost          REAL NOT NULL,
	pm_downtime_hours        REAL NOT NULL,
	pm_labor_cost            REAL NOT NULL,
	pm_parts_cost            REAL NOT NULL,
	key_drivers              TEXT NOT NULL DEFAULT '[]',
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS anomaly_scores (
	asset_id   TEXT PRIMARY KEY,
	confidence REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS correlation_records (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	predictor   REAL NOT NULL,
	outcome     INTEGER NOT NULL,
	observed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scoring_cycles (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	fallback    INTEGER NOT NULL DEFAULT 0,
	result      TEXT NOT NULL,
	error       TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_correlation_records_observed_at ON correlation_records(observed_at);
CREATE INDEX IF NOT EXISTS idx_scoring_cycles_created_at ON scoring_cycles(created_at);
CREATE INDEX IF NOT EXISTS idx_scoring_cycles_status ON scoring_cycles(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceCostProfiles(ctx context.Context, profiles []model.CostProfile) error {
	return s.inTx(ctx, "replace cost profiles", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cost_profiles`); err != nil {
			return eris.Wrap(err, "clear")
		}
		now := time.Now().UTC()
		for _, p := range profiles {
			drivers, err := json.Marshal(nonNil(p.KeyDrivers))
			if err != nil {
				return eris.Wrap(err, "marshal key drivers")
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cost_profiles (asset_id, asset_type, p_fail, confidence,
					unplanned_downtime_hours, cost_per_downtime_hour, repair_cost, scrap_risk_cost,
					pm_downtime_hours, pm_labor_cost, pm_parts_cost, key_drivers, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.AssetID, string(p.AssetType), p.PFail, p.Confidence,
				p.UnplannedDowntimeHours, p.CostPerDowntimeHour, p.RepairCost, p.ScrapRiskCost,
				p.PMDowntimeHours, p.PMLaborCost, p.PMPartsCost, string(drivers), now,
			)
			if err != nil {
				return eris.Wrapf(err, "insert %s", p.AssetID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListCostProfiles(ctx context.Context) ([]model.CostProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset_id, asset_type, p_fail, confidence,
			unplanned_downtime_hours, cost_per_downtime_hour, repair_cost, scrap_risk_cost,
			pm_downtime_hours, pm_labor_cost, pm_parts_cost, key_drivers
		 FROM cost_profiles ORDER BY asset_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cost profiles")
	}
	defer rows.Close()

	var out []model.CostProfile
	for rows.Next() {
		p, err := scanCostProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list cost profiles iterate")
}

func (s *SQLiteStore) ReplaceConfidences(ctx context.Context, confidences map[string]float64) error {
	return s.inTx(ctx, "replace confidences", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM anomaly_scores`); err != nil {
			return eris.Wrap(err, "clear")
		}
		now := time.Now().UTC()
		for id, c := range confidences {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO anomaly_scores (asset_id, confidence, updated_at) VALUES (?, ?, ?)`,
				id, c, now,
			); err != nil {
				return eris.Wrapf(err, "insert %s", id)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListConfidences(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT asset_id, confidence FROM anomaly_scores`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list confidences")
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var c float64
		if err := rows.Scan(&id, &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan confidence")
		}
		out[id] = c
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list confidences iterate")
}

func (s *SQLiteStore) AppendCorrelationRecords(ctx context.Context, records []model.CorrelationRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	err := s.inTx(ctx, "append correlation records", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO correlation_records (predictor, outcome, observed_at) VALUES (?, ?, ?)`)
		if err != nil {
			return eris.Wrap(err, "prepare")
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Predictor, r.Outcome, observedAt(r)); err != nil {
				return eris.Wrap(err, "insert")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *SQLiteStore) ListCorrelationRecords(ctx context.Context, since time.Time) ([]model.CorrelationRecord, error) {
	query := `SELECT predictor, outcome, observed_at FROM correlation_records`
	var args []any
	if !since.IsZero() {
		query += ` WHERE observed_at >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY observed_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list correlation records")
	}
	defer rows.Close()

	var out []model.CorrelationRecord
	for rows.Next() {
		var r model.CorrelationRecord
		if err := rows.Scan(&r.Predictor, &r.Outcome, &r.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan correlation record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list correlation records iterate")
}

func (s *SQLiteStore) SaveCycle(ctx context.Context, cycle *model.CycleResult) error {
	resultJSON, err := json.Marshal(cycle)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cycle")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scoring_cycles (id, status, fallback, result, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cycle.ID, string(cycle.Status), cycle.Fallback, string(resultJSON),
		nullString(cycle.Error), cycle.DurationMs, cycle.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert cycle %s", cycle.ID)
}

func (s *SQLiteStore) GetCycle(ctx context.Context, id string) (*model.CycleResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT result FROM scoring_cycles WHERE id = ?`, id)
	return scanCycle(row, id)
}

func (s *SQLiteStore) LatestCycle(ctx context.Context) (*model.CycleResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM scoring_cycles WHERE status = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		string(model.CycleStatusComplete),
	)
	return scanCycle(row, "")
}

func (s *SQLiteStore) ListCycles(ctx context.Context, filter CycleFilter) ([]model.CycleResult, error) {
	query := `SELECT result FROM scoring_cycles WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cycles")
	}
	defer rows.Close()

	var cycles []model.CycleResult
	for rows.Next() {
		c, err := scanCycle(rows, "")
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, *c)
	}
	return cycles, eris.Wrap(rows.Err(), "sqlite: list cycles iterate")
}

// helpers

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin tx", op)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return eris.Wrapf(err, "sqlite: %s", op)
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", op)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCostProfile(row scannable) (model.CostProfile, error) {
	var p model.CostProfile
	var drivers string
	err := row.Scan(&p.AssetID, &p.AssetType, &p.PFail, &p.Confidence,
		&p.UnplannedDowntimeHours, &p.CostPerDowntimeHour, &p.RepairCost, &p.ScrapRiskCost,
		&p.PMDowntimeHours, &p.PMLaborCost, &p.PMPartsCost, &drivers)
	if err != nil {
		return model.CostProfile{}, eris.Wrap(err, "sqlite: scan cost profile")
	}
	if err := json.Unmarshal([]byte(drivers), &p.KeyDrivers); err != nil {
		return model.CostProfile{}, eris.Wrapf(err, "sqlite: unmarshal key drivers for %s", p.AssetID)
	}
	if len(p.KeyDrivers) == 0 {
		p.KeyDrivers = nil
	}
	return p, nil
}

func scanCycle(row scannable, id string) (*model.CycleResult, error) {
	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "cycle", ID: id}
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan cycle")
	}

	var c model.CycleResult
	if err := json.Unmarshal([]byte(resultJSON), &c); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cycle")
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func observedAt(r model.CorrelationRecord) time.Time {
	if r.ObservedAt.IsZero() {
		return time.Now().UTC()
	}
	return r.ObservedAt.UTC()
}
