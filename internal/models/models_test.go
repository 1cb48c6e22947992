package models

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fizibilite/internal/listparams"
)

var scenarioCols = []string{
	"id", "school_id", "name", "academic_year", "status", "sent_at",
	"input_currency", "fx_usd_to_local", "local_currency_code", "program_type",
	"created_at", "updated_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return conn, mock
}

func scenarioRow(id, schoolID uuid.UUID, year string) *sqlmock.Rows {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(scenarioCols).AddRow(
		id.String(), schoolID.String(), "Kahire Okulu", year, StatusApproved, nil,
		"LOCAL", 32.5, "EGP", "local", now, now,
	)
}

func TestGetPrevScenarioExactMatch(t *testing.T) {
	conn, mock := newMock(t)
	schoolID, prevID := uuid.New(), uuid.New()

	mock.ExpectQuery(`WHERE s.school_id = \$1 AND s.academic_year = \$2`).
		WithArgs(schoolID, "2024-2025").
		WillReturnRows(scenarioRow(prevID, schoolID, "2024-2025"))
	mock.ExpectQuery(`SELECT inputs_json, updated_at FROM scenario_inputs`).
		WithArgs(prevID).
		WillReturnRows(sqlmock.NewRows([]string{"inputs_json", "updated_at"}).AddRow([]byte(`{"temelBilgiler":{}}`), time.Now()))
	mock.ExpectQuery(`SELECT results_json FROM scenario_results`).
		WithArgs(prevID).
		WillReturnRows(sqlmock.NewRows([]string{"results_json"}))

	prev, err := GetPrevScenario(context.Background(), conn, schoolID, "2025-2026")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, prevID, prev.Scenario.ID)
	assert.Equal(t, "2024-2025", prev.Scenario.AcademicYear)
	assert.JSONEq(t, `{"temelBilgiler":{}}`, string(prev.Inputs))
	assert.Nil(t, prev.Results)

	meta := prev.Scenario.CurrencyMeta()
	require.NotNil(t, meta.FXUSDToLocal)
	assert.Equal(t, 32.5, *meta.FXUSDToLocal)
	assert.Equal(t, "EGP", meta.LocalCurrencyCode)
}

func TestGetPrevScenarioFallsBackToLatestEarlierYear(t *testing.T) {
	conn, mock := newMock(t)
	schoolID := uuid.New()
	older, gapYear, later := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`WHERE s.school_id = \$1 AND s.academic_year = \$2`).
		WithArgs(schoolID, "2024/2025").
		WillReturnRows(sqlmock.NewRows(scenarioCols))
	mock.ExpectQuery(`SELECT id, academic_year FROM school_scenarios WHERE school_id = \$1`).
		WithArgs(schoolID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "academic_year"}).
			AddRow(older.String(), "2021-2022").
			AddRow(gapYear.String(), "2023-24").
			AddRow(later.String(), "2025/2026").
			AddRow(uuid.NewString(), "bilinmiyor"))
	mock.ExpectQuery(`WHERE s.id = \$1`).
		WithArgs(gapYear).
		WillReturnRows(scenarioRow(gapYear, schoolID, "2023-24"))
	mock.ExpectQuery(`FROM scenario_inputs`).
		WithArgs(gapYear).
		WillReturnRows(sqlmock.NewRows([]string{"inputs_json", "updated_at"}))
	mock.ExpectQuery(`FROM scenario_results`).
		WithArgs(gapYear).
		WillReturnRows(sqlmock.NewRows([]string{"results_json"}).AddRow([]byte(`{"y1":{}}`)))

	prev, err := GetPrevScenario(context.Background(), conn, schoolID, "2025/2026")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, gapYear, prev.Scenario.ID)
	assert.Nil(t, prev.Inputs)
	assert.JSONEq(t, `{"y1":{}}`, string(prev.Results))
}

func TestGetPrevScenarioNone(t *testing.T) {
	t.Run("unparseable year", func(t *testing.T) {
		conn, _ := newMock(t)
		prev, err := GetPrevScenario(context.Background(), conn, uuid.New(), "abc")
		assert.NoError(t, err)
		assert.Nil(t, prev)
	})

	t.Run("no earlier scenario", func(t *testing.T) {
		conn, mock := newMock(t)
		schoolID := uuid.New()
		mock.ExpectQuery(`AND s.academic_year = \$2`).WillReturnRows(sqlmock.NewRows(scenarioCols))
		mock.ExpectQuery(`SELECT id, academic_year`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "academic_year"}).AddRow(uuid.NewString(), "2025-2026"))

		prev, err := GetPrevScenario(context.Background(), conn, schoolID, "2025-2026")
		assert.NoError(t, err)
		assert.Nil(t, prev)
	})
}

func TestGetPrevScenarioArguments(t *testing.T) {
	_, err := GetPrevScenario(context.Background(), nil, uuid.New(), "2025-2026")
	assert.Error(t, err)

	conn, _ := newMock(t)
	_, err = GetPrevScenario(context.Background(), conn, uuid.Nil, "2025-2026")
	assert.Error(t, err)
}

func TestGetPrevScenarioPropagatesDatabaseErrors(t *testing.T) {
	conn, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`AND s.academic_year = \$2`).WillReturnError(boom)

	_, err := GetPrevScenario(context.Background(), conn, uuid.New(), "2025-2026")
	assert.ErrorIs(t, err, boom)
}

func TestCreateScenarioDuplicateYear(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"pgx", &pgconn.PgError{Code: "23505", ConstraintName: "school_scenarios_school_year_key"}},
		{"lib/pq", &pq.Error{Code: "23505", Constraint: "school_scenarios_school_year_key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			mock.ExpectExec(`INSERT INTO school_scenarios`).WillReturnError(tt.err)

			_, err := CreateScenario(context.Background(), conn, NewScenario{SchoolID: uuid.New(), AcademicYear: "2025-2026"})
			var exists *ScenarioExistsError
			require.ErrorAs(t, err, &exists)
			assert.Equal(t, "2025-2026", exists.AcademicYear)
		})
	}
}

func TestIsScenarioExistsErrorIgnoresOtherConstraints(t *testing.T) {
	assert.False(t, IsScenarioExistsError(nil))
	assert.False(t, IsScenarioExistsError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))
	assert.False(t, IsScenarioExistsError(&pgconn.PgError{Code: "23503", ConstraintName: "school_scenarios_school_year_key"}))
}

func TestCreateScenario(t *testing.T) {
	conn, mock := newMock(t)
	schoolID := uuid.New()

	mock.ExpectExec(`INSERT INTO school_scenarios`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO scenario_inputs`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`WHERE s.id = \$1`).WillReturnRows(scenarioRow(uuid.New(), schoolID, "2025-2026"))

	s, err := CreateScenario(context.Background(), conn, NewScenario{SchoolID: schoolID, AcademicYear: "2025-2026", InputCurrency: "LOCAL", ProgramType: "local"})
	require.NoError(t, err)
	assert.Equal(t, schoolID, s.SchoolID)
}

func TestGetScenarioNotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`WHERE s.id = \$1`).WillReturnRows(sqlmock.NewRows(scenarioCols))

	_, err := GetScenario(context.Background(), conn, uuid.New())
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestListScenariosAppliesParams(t *testing.T) {
	conn, mock := newMock(t)
	schoolID := uuid.New()

	p, err := listparams.Parse(map[string][]string{"limit": {"10"}, "offset": {"20"}, "order": {"status:desc"}},
		listparams.Options{AllowedOrderColumns: ScenarioOrderColumns})
	require.NoError(t, err)

	mock.ExpectQuery(`WHERE s.school_id = \$1 ORDER BY s.status DESC, s.id LIMIT \$2 OFFSET \$3`).
		WithArgs(schoolID, 10, 20).
		WillReturnRows(scenarioRow(uuid.New(), schoolID, "2025-2026"))

	list, err := ListScenarios(context.Background(), conn, schoolID, p)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListReviewQueue(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`WHERE s.status IN \(\$1, \$2\) ORDER BY s.academic_year DESC, s.id$`).
		WithArgs(StatusInReview, StatusSentForApproval).
		WillReturnRows(sqlmock.NewRows(scenarioCols))

	list, err := ListReviewQueue(context.Background(), conn, listparams.Params{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestDeleteScenarioNotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM school_scenarios`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, DeleteScenario(context.Background(), conn, uuid.New()), ErrScenarioNotFound)
}

func TestSetWorkItemState(t *testing.T) {
	t.Run("rejects unknown state", func(t *testing.T) {
		conn, _ := newMock(t)
		_, err := SetWorkItemState(context.Background(), conn, uuid.New(), "kapasite", "done", nil)
		assert.Error(t, err)
	})

	t.Run("upserts", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		comment := "Kapasite rakamlarını kontrol edin"
		mock.ExpectQuery(`INSERT INTO scenario_work_items`).
			WithArgs(id, "kapasite", WorkNeedsRevision, &comment).
			WillReturnRows(sqlmock.NewRows([]string{"scenario_id", "work_id", "state", "submitted_at", "manager_comment", "updated_at"}).
				AddRow(id.String(), "kapasite", WorkNeedsRevision, nil, comment, time.Now()))

		w, err := SetWorkItemState(context.Background(), conn, id, "kapasite", WorkNeedsRevision, &comment)
		require.NoError(t, err)
		assert.Equal(t, WorkNeedsRevision, w.State)
		require.NotNil(t, w.ManagerComment)
		assert.Equal(t, comment, *w.ManagerComment)
		assert.Nil(t, w.SubmittedAt)
	})
}

func TestGetStatusDisplayInfo(t *testing.T) {
	assert.Equal(t, "Onaylandı", GetStatusDisplayInfo(StatusApproved, false).DisplayName)
	assert.Equal(t, "Kesin Onaylı", GetStatusDisplayInfo(StatusApproved, true).DisplayName)
	assert.Equal(t, "archived", GetStatusDisplayInfo("archived", false).DisplayName)
}
