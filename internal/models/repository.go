package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fizibilite/internal/listparams"
)

func GetUserByEmail(ctx context.Context, q Querier, email string) (*User, error) {
	user := &User{}
	err := q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func CreateUser(ctx context.Context, q Querier, email, passwordHash, role string) (*User, error) {
	user := &User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, Role: role}
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at
	`, user.ID, email, passwordHash, role).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func CreateSchool(ctx context.Context, q Querier, name string, country *string) (*School, error) {
	school := &School{ID: uuid.New(), Name: name, Country: country}
	err := q.QueryRowContext(ctx, `
		INSERT INTO schools (id, name, country) VALUES ($1, $2, $3)
		RETURNING created_at
	`, school.ID, name, country).Scan(&school.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}
	return school, nil
}

func GetSchool(ctx context.Context, q Querier, id uuid.UUID) (*School, error) {
	school := &School{}
	err := q.QueryRowContext(ctx, `SELECT id, name, country, created_at FROM schools WHERE id = $1`, id).
		Scan(&school.ID, &school.Name, &school.Country, &school.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSchoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return school, nil
}

const scenarioColumns = `
	s.id, s.school_id, COALESCE(sc.name, ''), s.academic_year, s.status, s.sent_at,
	s.input_currency, s.fx_usd_to_local::float8, s.local_currency_code, s.program_type,
	s.created_at, s.updated_at`

const scenarioFrom = `
	FROM school_scenarios s
	LEFT JOIN schools sc ON sc.id = s.school_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (*Scenario, error) {
	s := &Scenario{}
	err := row.Scan(
		&s.ID, &s.SchoolID, &s.SchoolName, &s.AcademicYear, &s.Status, &s.SentAt,
		&s.InputCurrency, &s.FXUSDToLocal, &s.LocalCurrencyCode, &s.ProgramType,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateScenario inserts a draft scenario with an empty inputs document.
// Run it inside a transaction so both rows land together.
func CreateScenario(ctx context.Context, q Querier, ns NewScenario) (*Scenario, error) {
	id := uuid.New()
	_, err := q.ExecContext(ctx, `
		INSERT INTO school_scenarios
			(id, school_id, academic_year, status, input_currency, fx_usd_to_local, local_currency_code, program_type, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, ns.SchoolID, ns.AcademicYear, StatusDraft, ns.InputCurrency, ns.FXUSDToLocal, ns.LocalCurrencyCode, ns.ProgramType, ns.CreatedByUserID)
	if IsScenarioExistsError(err) {
		return nil, &ScenarioExistsError{AcademicYear: ns.AcademicYear}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO scenario_inputs (scenario_id, inputs_json) VALUES ($1, '{}'::jsonb)`, id); err != nil {
		return nil, fmt.Errorf("failed to create scenario inputs: %w", err)
	}
	return GetScenario(ctx, q, id)
}

func GetScenario(ctx context.Context, q Querier, id uuid.UUID) (*Scenario, error) {
	s, err := scanScenario(q.QueryRowContext(ctx, `SELECT `+scenarioColumns+scenarioFrom+` WHERE s.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

// ScenarioOrderColumns is the list allow-list, mapping public names to columns.
var ScenarioOrderColumns = map[string]string{
	"academicYear": "s.academic_year",
	"status":       "s.status",
	"createdAt":    "s.created_at",
	"updatedAt":    "s.updated_at",
}

func listScenarios(ctx context.Context, q Querier, where string, args []any, p listparams.Params) ([]*Scenario, error) {
	query := `SELECT ` + scenarioColumns + scenarioFrom + ` WHERE ` + where
	if p.Order != nil {
		query += " ORDER BY " + p.Order.SQL() + ", s.id"
	} else {
		query += " ORDER BY s.academic_year DESC, s.id"
	}
	if p.Limit != nil {
		args = append(args, *p.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if p.Offset > 0 {
		args = append(args, p.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	out := []*Scenario{}
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return out, nil
}

func ListScenarios(ctx context.Context, q Querier, schoolID uuid.UUID, p listparams.Params) ([]*Scenario, error) {
	return listScenarios(ctx, q, "s.school_id = $1", []any{schoolID}, p)
}

// ReviewQueueStatuses are the statuses waiting on a reviewer.
var ReviewQueueStatuses = []string{StatusInReview, StatusSentForApproval}

func ListReviewQueue(ctx context.Context, q Querier, p listparams.Params) ([]*Scenario, error) {
	placeholders := make([]string, len(ReviewQueueStatuses))
	args := make([]any, len(ReviewQueueStatuses))
	for i, s := range ReviewQueueStatuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}
	return listScenarios(ctx, q, "s.status IN ("+strings.Join(placeholders, ", ")+")", args, p)
}

// ListScenarioIDs returns every scenario id, oldest first.
func ListScenarioIDs(ctx context.Context, q Querier) ([]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM school_scenarios ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenario ids: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan scenario id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func DeleteScenario(ctx context.Context, q Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM school_scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrScenarioNotFound
	}
	return nil
}

func UpdateScenarioStatus(ctx context.Context, q Querier, id uuid.UUID, status string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE school_scenarios SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update scenario status: %w", err)
	}
	return nil
}

// SetScenarioSent sets status and sent_at together; a nil sentAt clears it.
func SetScenarioSent(ctx context.Context, q Querier, id uuid.UUID, status string, sentAt *time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE school_scenarios SET status = $1, sent_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3
	`, status, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to update scenario approval: %w", err)
	}
	return nil
}

// GetScenarioInputs returns the inputs document, or ErrScenarioNotFound.
func GetScenarioInputs(ctx context.Context, q Querier, scenarioID uuid.UUID) (*ScenarioInputs, error) {
	in := &ScenarioInputs{ScenarioID: scenarioID}
	err := q.QueryRowContext(ctx, `
		SELECT inputs_json, updated_at FROM scenario_inputs WHERE scenario_id = $1
	`, scenarioID).Scan(&in.Inputs, &in.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario inputs: %w", err)
	}
	return in, nil
}

// SaveScenarioInputs replaces the inputs document and returns its new
// updated_at, which keys the export cache.
func SaveScenarioInputs(ctx context.Context, q Querier, scenarioID uuid.UUID, inputs json.RawMessage) (time.Time, error) {
	var updatedAt time.Time
	err := q.QueryRowContext(ctx, `
		INSERT INTO scenario_inputs (scenario_id, inputs_json, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (scenario_id) DO UPDATE SET inputs_json = EXCLUDED.inputs_json, updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`, scenarioID, []byte(inputs)).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to save scenario inputs: %w", err)
	}
	return updatedAt, nil
}

func SaveScenarioResults(ctx context.Context, q Querier, scenarioID uuid.UUID, results json.RawMessage) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO scenario_results (scenario_id, results_json, computed_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (scenario_id) DO UPDATE SET results_json = EXCLUDED.results_json, computed_at = CURRENT_TIMESTAMP
	`, scenarioID, []byte(results))
	if err != nil {
		return fmt.Errorf("failed to save scenario results: %w", err)
	}
	return nil
}

// GetScenarioResults returns the stored results, or nil when none were computed.
func GetScenarioResults(ctx context.Context, q Querier, scenarioID uuid.UUID) (json.RawMessage, error) {
	var raw []byte
	err := q.QueryRowContext(ctx, `SELECT results_json FROM scenario_results WHERE scenario_id = $1`, scenarioID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario results: %w", err)
	}
	return raw, nil
}

func GetWorkItems(ctx context.Context, q Querier, scenarioID uuid.UUID) ([]*WorkItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT scenario_id, work_id, state, submitted_at, manager_comment, updated_at
		FROM scenario_work_items
		WHERE scenario_id = $1
		ORDER BY work_id
	`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work items: %w", err)
	}
	defer rows.Close()

	items := []*WorkItem{}
	for rows.Next() {
		w := &WorkItem{}
		if err := rows.Scan(&w.ScenarioID, &w.WorkID, &w.State, &w.SubmittedAt, &w.ManagerComment, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get work items: %w", err)
	}
	return items, nil
}

// SetWorkItemState upserts a work item. Submitting stamps submitted_at; a
// comment replaces the manager comment only when given.
func SetWorkItemState(ctx context.Context, q Querier, scenarioID uuid.UUID, workID, state string, comment *string) (*WorkItem, error) {
	if !ValidWorkState(state) {
		return nil, fmt.Errorf("invalid work item state %q", state)
	}
	w := &WorkItem{}
	err := q.QueryRowContext(ctx, `
		INSERT INTO scenario_work_items (scenario_id, work_id, state, submitted_at, manager_comment, updated_at)
		VALUES ($1, $2, $3, CASE WHEN $3 = 'submitted' THEN CURRENT_TIMESTAMP END, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (scenario_id, work_id) DO UPDATE SET
			state = EXCLUDED.state,
			submitted_at = COALESCE(EXCLUDED.submitted_at, scenario_work_items.submitted_at),
			manager_comment = COALESCE(EXCLUDED.manager_comment, scenario_work_items.manager_comment),
			updated_at = CURRENT_TIMESTAMP
		RETURNING scenario_id, work_id, state, submitted_at, manager_comment, updated_at
	`, scenarioID, workID, state, comment).Scan(&w.ScenarioID, &w.WorkID, &w.State, &w.SubmittedAt, &w.ManagerComment, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set work item %s: %w", workID, err)
	}
	return w, nil
}

// GetScenarioStatus reads only the workflow fields of a scenario.
func GetScenarioStatus(ctx context.Context, q Querier, id uuid.UUID) (string, *time.Time, error) {
	var status string
	var sentAt *time.Time
	err := q.QueryRowContext(ctx, `SELECT status, sent_at FROM school_scenarios WHERE id = $1`, id).Scan(&status, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrScenarioNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to get scenario status: %w", err)
	}
	return status, sentAt, nil
}
