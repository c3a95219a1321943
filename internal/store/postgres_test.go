package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcore/pdm-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_ReplaceCostProfiles(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "cost_profiles"`).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCopyFrom(pgx.Identifier{"cost_profiles"}, costProfileColumns).WillReturnResult(2)
	mock.ExpectCommit()

	err := s.ReplaceCostProfiles(context.Background(), []model.CostProfile{
		testProfile("CNC_MILL_01", 0.075),
		testProfile("CNC_MILL_02", 0.05),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCostProfiles_BeginFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection refused"))

	err := s.ReplaceCostProfiles(context.Background(), []model.CostProfile{testProfile("A", 0.1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace cost profiles")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCostProfiles(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"asset_id", "asset_type", "p_fail", "confidence",
		"unplanned_downtime_hours", "cost_per_downtime_hour", "repair_cost", "scrap_risk_cost",
		"pm_downtime_hours", "pm_labor_cost", "pm_parts_cost", "key_drivers",
	}).
		AddRow("AUTOCLAVE_01", "AUTOCLAVE", 0.32, 0.9, 10.0, 15000.0, 20000.0, 50000.0, 2.0, 8000.0, 10000.0, []byte(`["Vacuum decay"]`)).
		AddRow("QC_STATION_01", "QC", 0.02, 0.5, 1.0, 5000.0, 1000.0, 0.0, 0.5, 500.0, 200.0, []byte(`[]`))

	mock.ExpectQuery(`^list_cost_profiles$`).WillReturnRows(rows)

	got, err := s.ListCostProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.AssetTypeAutoclave, got[0].AssetType)
	assert.Equal(t, []string{"Vacuum decay"}, got[0].KeyDrivers)
	assert.InDelta(t, 220000, got[0].UnplannedTotal(), 1e-9)
	assert.Nil(t, got[1].KeyDrivers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceConfidences(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "anomaly_scores"`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"anomaly_scores"}, anomalyScoreColumns).WillReturnResult(1)
	mock.ExpectCommit()

	err := s.ReplaceConfidences(context.Background(), map[string]float64{"LAYUP_ROOM": 0.8})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListConfidences(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`^list_confidences$`).
		WillReturnRows(pgxmock.NewRows([]string{"asset_id", "confidence"}).
			AddRow("LAYUP_ROOM", 0.8).
			AddRow("AUTOCLAVE_01", 0.9))

	got, err := s.ListConfidences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"LAYUP_ROOM": 0.8, "AUTOCLAVE_01": 0.9}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendCorrelationRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"correlation_records"}, correlationRecordColumns).WillReturnResult(2)

	n, err := s.AppendCorrelationRecords(context.Background(), []model.CorrelationRecord{
		{Predictor: 72, Outcome: true, ObservedAt: time.Now()},
		{Predictor: 50, Outcome: false, ObservedAt: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCorrelationRecords_Since(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT predictor, outcome, observed_at FROM correlation_records WHERE observed_at >= \$1 ORDER BY observed_at, id`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"predictor", "outcome", "observed_at"}).
			AddRow(66.0, true, since.Add(time.Hour)))

	got, err := s.ListCorrelationRecords(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCycle(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	c := testCycle("cycle-1", model.CycleStatusComplete, time.Now())

	mock.ExpectExec(`INSERT INTO scoring_cycles`).
		WithArgs("cycle-1", "complete", false, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(12), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveCycle(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCycle(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	c := testCycle("cycle-1", model.CycleStatusComplete, time.Now().UTC())
	data, err := json.Marshal(c)
	require.NoError(t, err)

	mock.ExpectQuery(`^get_cycle$`).
		WithArgs("cycle-1").
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(data))

	got, err := s.GetCycle(context.Background(), "cycle-1")
	require.NoError(t, err)
	assert.Equal(t, c.Decisions, got.Decisions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCycle_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`^get_cycle$`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCycle(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestCycle(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	data, err := json.Marshal(testCycle("latest", model.CycleStatusComplete, time.Now().UTC()))
	require.NoError(t, err)

	mock.ExpectQuery(`^latest_cycle$`).
		WithArgs("complete").
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(data))

	got, err := s.LatestCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "latest", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCycles_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	data, err := json.Marshal(testCycle("c1", model.CycleStatusFailed, time.Now().UTC()))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT result FROM scoring_cycles WHERE true AND status = \$1 ORDER BY created_at DESC, seq DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("failed", 5, 10).
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(data))

	got, err := s.ListCycles(context.Background(), CycleFilter{Status: model.CycleStatusFailed, Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PreparedStatements(t *testing.T) {
	tests := []struct {
		name     string
		contains []string
	}{
		{name: stmtListCostProfiles, contains: []string{"FROM cost_profiles", "ORDER BY asset_id"}},
		{name: stmtListConfidences, contains: []string{"FROM anomaly_scores"}},
		{name: stmtGetCycle, contains: []string{"FROM scoring_cycles", "WHERE id = $1"}},
		{name: stmtLatestCycle, contains: []string{"WHERE status = $1", "ORDER BY created_at DESC, seq DESC LIMIT 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, ok := preparedStatements[tt.name]
			require.True(t, ok, "statement %q is not prepared", tt.name)
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
		})
	}
	assert.Len(t, preparedStatements, len(tests))
}

func TestPostgresStore_ListCycles_OrderTieBreak(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer, err := json.Marshal(testCycle("b-newer", model.CycleStatusComplete, at))
	require.NoError(t, err)
	older, err := json.Marshal(testCycle("a-older", model.CycleStatusComplete, at))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT result FROM scoring_cycles WHERE true ORDER BY created_at DESC, seq DESC LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(newer).AddRow(older))

	got, err := s.ListCycles(context.Background(), CycleFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-newer", got[0].ID)
	assert.Equal(t, "a-older", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cost_profiles`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnError(fmt.Errorf("down"))

	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseWithoutPool(t *testing.T) {
	s := &PostgresStore{}
	assert.NoError(t, s.Close())
}
