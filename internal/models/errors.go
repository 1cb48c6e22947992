package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrSchoolNotFound   = errors.New("school not found")
	ErrUserNotFound     = errors.New("user not found")
)

// ScenarioExistsError is a violation of the one-scenario-per-school-and-year rule.
type ScenarioExistsError struct {
	AcademicYear string
}

func (e *ScenarioExistsError) Error() string {
	if e.AcademicYear == "" {
		return "a scenario for this academic year already exists"
	}
	return fmt.Sprintf("a scenario for academic year %s already exists", e.AcademicYear)
}

// IsScenarioExistsError reports whether err is a unique violation on the
// (school_id, academic_year) constraint, from either the pgx or the lib/pq
// driver.
func IsScenarioExistsError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "school_year")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "school_year")
	}
	return false
}
