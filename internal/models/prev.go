package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fizibilite/internal/util"
)

// PrevScenario is the predecessor of a scenario together with its stored
// documents. Inputs and Results are nil when the predecessor has none.
type PrevScenario struct {
	Scenario *Scenario
	Inputs   json.RawMessage
	Results  json.RawMessage
}

// GetPrevScenario finds the scenario of the same school for the academic
// year before academicYear. Without an exact match it takes the scenario
// with the latest start year below academicYear's, so a gap year still
// yields a comparison. It returns nil, nil when there is no predecessor.
func GetPrevScenario(ctx context.Context, q Querier, schoolID uuid.UUID, academicYear string) (*PrevScenario, error) {
	if q == nil {
		return nil, errors.New("prev scenario: nil querier")
	}
	if schoolID == uuid.Nil {
		return nil, errors.New("prev scenario: invalid school id")
	}

	var prev *Scenario
	if prevYear, ok := util.ComputePrevAcademicYear(academicYear); ok {
		s, err := scanScenario(q.QueryRowContext(ctx,
			`SELECT `+scenarioColumns+scenarioFrom+` WHERE s.school_id = $1 AND s.academic_year = $2`,
			schoolID, prevYear))
		switch {
		case err == nil:
			prev = s
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to get previous scenario: %w", err)
		}
	}

	if prev == nil {
		id, err := latestEarlierScenario(ctx, q, schoolID, academicYear)
		if err != nil || id == uuid.Nil {
			return nil, err
		}
		if prev, err = GetScenario(ctx, q, id); err != nil {
			if errors.Is(err, ErrScenarioNotFound) {
				return nil, nil
			}
			return nil, err
		}
	}

	out := &PrevScenario{Scenario: prev}
	in, err := GetScenarioInputs(ctx, q, prev.ID)
	switch {
	case err == nil:
		out.Inputs = in.Inputs
	case !errors.Is(err, ErrScenarioNotFound):
		return nil, err
	}
	if out.Results, err = GetScenarioResults(ctx, q, prev.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// latestEarlierScenario scans the school's scenarios for the one with the
// greatest start year strictly below academicYear's.
func latestEarlierScenario(ctx context.Context, q Querier, schoolID uuid.UUID, academicYear string) (uuid.UUID, error) {
	current, ok := util.AcademicStartYear(academicYear)
	if !ok {
		return uuid.Nil, nil
	}
	rows, err := q.QueryContext(ctx, `SELECT id, academic_year FROM school_scenarios WHERE school_id = $1`, schoolID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list school scenarios: %w", err)
	}
	defer rows.Close()

	best, bestYear := uuid.Nil, 0
	for rows.Next() {
		var id uuid.UUID
		var year string
		if err := rows.Scan(&id, &year); err != nil {
			return uuid.Nil, fmt.Errorf("failed to scan school scenario: %w", err)
		}
		start, ok := util.AcademicStartYear(year)
		if !ok || start >= current {
			continue
		}
		if best == uuid.Nil || start > bestYear {
			best, bestYear = id, start
		}
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to list school scenarios: %w", err)
	}
	return best, nil
}
