package workflow

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fizibilite/internal/models"
)

func allStates(state string) map[string]string {
	m := make(map[string]string, len(RequiredWorkIDs))
	for _, id := range RequiredWorkIDs {
		m[id] = state
	}
	return m
}

func TestResolve(t *testing.T) {
	mixed := allStates(models.WorkApproved)
	mixed["kapasite"] = models.WorkSubmitted

	revised := allStates(models.WorkApproved)
	revised["giderler.isletme"] = models.WorkNeedsRevision

	notStarted := allStates(models.WorkNotStarted)

	partial := map[string]string{"kapasite": models.WorkInProgress}

	extraOnly := map[string]string{"custom.module": models.WorkApproved}

	tests := []struct {
		name   string
		states map[string]string
		want   string
	}{
		{"nothing recorded", nil, models.StatusDraft},
		{"all not started", notStarted, models.StatusDraft},
		{"only non-required items", extraOnly, models.StatusDraft},
		{"one in progress", partial, models.StatusInReview},
		{"mostly approved", mixed, models.StatusInReview},
		{"all approved", allStates(models.WorkApproved), models.StatusApproved},
		{"revision wins over approvals", revised, models.StatusRevisionRequested},
		{"all submitted", allStates(models.WorkSubmitted), models.StatusInReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.states))
			assert.Equal(t, tt.want, Resolve(tt.states), "same snapshot, same status")
		})
	}
}

func TestResolveRevisionAlwaysWins(t *testing.T) {
	others := []string{"", models.WorkNotStarted, models.WorkInProgress, models.WorkSubmitted, models.WorkApproved}
	for i := range RequiredWorkIDs {
		for _, other := range others {
			states := allStates(other)
			states[RequiredWorkIDs[i]] = models.WorkNeedsRevision
			assert.Equal(t, models.StatusRevisionRequested, Resolve(states))
		}
	}
}

func TestIsRequired(t *testing.T) {
	for _, id := range RequiredWorkIDs {
		assert.True(t, IsRequired(id), id)
	}
	assert.False(t, IsRequired("gelirler"))
	assert.False(t, IsRequired(""))
}

func TestLocked(t *testing.T) {
	now := time.Now()
	assert.True(t, Locked(models.StatusSentForApproval, nil))
	assert.True(t, Locked(models.StatusApproved, &now))
	assert.False(t, Locked(models.StatusApproved, nil))
	assert.False(t, Locked(models.StatusInReview, nil))
}

var workItemCols = []string{"scenario_id", "work_id", "state", "submitted_at", "manager_comment", "updated_at"}

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

func expectStatus(mock sqlmock.Sqlmock, id uuid.UUID, status string, sentAt *time.Time) {
	var sent any
	if sentAt != nil {
		sent = *sentAt
	}
	mock.ExpectQuery(`SELECT status, sent_at FROM school_scenarios`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "sent_at"}).AddRow(status, sent))
}

func expectItems(mock sqlmock.Sqlmock, id uuid.UUID, states map[string]string) {
	rows := sqlmock.NewRows(workItemCols)
	for _, workID := range RequiredWorkIDs {
		if s, ok := states[workID]; ok {
			rows.AddRow(id.String(), workID, s, nil, nil, time.Now())
		}
	}
	mock.ExpectQuery(`FROM scenario_work_items`).WithArgs(id).WillReturnRows(rows)
}

func TestComputeScenarioWorkflowStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown scenario", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		mock.ExpectQuery(`SELECT status, sent_at`).WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"status", "sent_at"}))

		status, changed, err := ComputeScenarioWorkflowStatus(ctx, conn, id)
		require.NoError(t, err)
		assert.Equal(t, "", status)
		assert.False(t, changed)
	})

	t.Run("unchanged status is not written", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusInReview, nil)
		expectItems(mock, id, map[string]string{"kapasite": models.WorkSubmitted})

		status, changed, err := ComputeScenarioWorkflowStatus(ctx, conn, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInReview, status)
		assert.False(t, changed)
	})

	t.Run("changed status is persisted", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusInReview, nil)
		expectItems(mock, id, allStates(models.WorkApproved))
		mock.ExpectExec(`UPDATE school_scenarios SET status = \$1`).
			WithArgs(models.StatusApproved, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		status, changed, err := ComputeScenarioWorkflowStatus(ctx, conn, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, status)
		assert.True(t, changed)
	})

	t.Run("locked scenario keeps its status", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusSentForApproval, nil)

		status, changed, err := ComputeScenarioWorkflowStatus(ctx, conn, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSentForApproval, status)
		assert.False(t, changed)
	})

	t.Run("database errors propagate", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusDraft, nil)
		mock.ExpectQuery(`FROM scenario_work_items`).WillReturnError(sql.ErrConnDone)

		_, _, err := ComputeScenarioWorkflowStatus(ctx, conn, id)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestSendForApproval(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("sends an approved scenario", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusApproved, nil)
		expectItems(mock, id, allStates(models.WorkApproved))
		mock.ExpectExec(`UPDATE school_scenarios SET status = \$1`).
			WithArgs(models.StatusSentForApproval, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, SendForApproval(ctx, conn, id))
	})

	t.Run("refuses pending items", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		states := allStates(models.WorkApproved)
		states["ik.local_staff"] = models.WorkSubmitted
		expectStatus(mock, id, models.StatusInReview, nil)
		expectItems(mock, id, states)

		err := SendForApproval(ctx, conn, id)
		var gateErr *GateError
		require.ErrorAs(t, err, &gateErr)
		assert.Contains(t, gateErr.Reason, "ik.local_staff")
	})

	t.Run("refuses a scenario already sent", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusApproved, &now)

		var gateErr *GateError
		assert.ErrorAs(t, SendForApproval(ctx, conn, id), &gateErr)
	})

	t.Run("refuses a stale status", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusInReview, nil)
		expectItems(mock, id, allStates(models.WorkApproved))

		var gateErr *GateError
		assert.ErrorAs(t, SendForApproval(ctx, conn, id), &gateErr)
	})
}

func TestFinalizeApproval(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	conn, mock := newMock(t)
	id := uuid.New()
	expectStatus(mock, id, models.StatusSentForApproval, nil)
	mock.ExpectExec(`SET status = \$1, sent_at = \$2`).
		WithArgs(models.StatusApproved, at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, FinalizeApproval(ctx, conn, id, at))

	expectStatus(mock, id, models.StatusInReview, nil)
	var gateErr *GateError
	assert.ErrorAs(t, FinalizeApproval(ctx, conn, id, at), &gateErr)
}

func TestReturnForRevision(t *testing.T) {
	ctx := context.Background()

	t.Run("reopens a sent scenario", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusSentForApproval, nil)
		mock.ExpectQuery(`INSERT INTO scenario_work_items`).
			WithArgs(id, "kapasite", models.WorkNeedsRevision, "Kapasite eksik").
			WillReturnRows(sqlmock.NewRows(workItemCols).
				AddRow(id.String(), "kapasite", models.WorkNeedsRevision, nil, "Kapasite eksik", time.Now()))
		mock.ExpectExec(`SET status = \$1, sent_at = \$2`).
			WithArgs(models.StatusRevisionRequested, nil, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		status, err := ReturnForRevision(ctx, conn, id, []string{"kapasite"}, " Kapasite eksik ")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRevisionRequested, status)
	})

	t.Run("validates before touching the database", func(t *testing.T) {
		conn, _ := newMock(t)
		id := uuid.New()
		var gateErr *GateError
		_, err := ReturnForRevision(ctx, conn, id, []string{"kapasite"}, "  ")
		assert.ErrorAs(t, err, &gateErr)
		_, err = ReturnForRevision(ctx, conn, id, nil, "neden")
		assert.ErrorAs(t, err, &gateErr)
		_, err = ReturnForRevision(ctx, conn, id, []string{"bogus"}, "neden")
		assert.ErrorAs(t, err, &gateErr)
	})
}

func TestApplyWorkItemAction(t *testing.T) {
	ctx := context.Background()

	t.Run("submit recomputes", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusDraft, nil)
		mock.ExpectQuery(`INSERT INTO scenario_work_items`).
			WithArgs(id, "temel_bilgiler", models.WorkSubmitted, nil).
			WillReturnRows(sqlmock.NewRows(workItemCols).
				AddRow(id.String(), "temel_bilgiler", models.WorkSubmitted, time.Now(), nil, time.Now()))
		expectStatus(mock, id, models.StatusDraft, nil)
		expectItems(mock, id, map[string]string{"temel_bilgiler": models.WorkSubmitted})
		mock.ExpectExec(`UPDATE school_scenarios SET status = \$1`).
			WithArgs(models.StatusInReview, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		item, status, err := ApplyWorkItemAction(ctx, conn, id, "temel_bilgiler", ActionSubmit, "")
		require.NoError(t, err)
		assert.Equal(t, models.WorkSubmitted, item.State)
		assert.NotNil(t, item.SubmittedAt)
		assert.Equal(t, models.StatusInReview, status)
	})

	t.Run("locked scenario refuses edits", func(t *testing.T) {
		conn, mock := newMock(t)
		id := uuid.New()
		expectStatus(mock, id, models.StatusSentForApproval, nil)

		var gateErr *GateError
		_, _, err := ApplyWorkItemAction(ctx, conn, id, "kapasite", ActionApprove, "")
		assert.ErrorAs(t, err, &gateErr)
	})

	t.Run("argument checks", func(t *testing.T) {
		conn, _ := newMock(t)
		var gateErr *GateError
		_, _, err := ApplyWorkItemAction(ctx, conn, uuid.New(), "kapasite", "archive", "")
		assert.ErrorAs(t, err, &gateErr)
		_, _, err = ApplyWorkItemAction(ctx, conn, uuid.New(), "unknown", ActionSubmit, "")
		assert.ErrorAs(t, err, &gateErr)
		_, _, err = ApplyWorkItemAction(ctx, conn, uuid.New(), "kapasite", ActionRevise, "")
		assert.ErrorAs(t, err, &gateErr)
	})
}
