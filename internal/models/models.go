package models

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"fizibilite/internal/finance"
)

// Querier is the query surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// User roles.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RolePrincipal = "principal"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type School struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Country   *string   `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
}

type Scenario struct {
	ID                uuid.UUID  `json:"id"`
	SchoolID          uuid.UUID  `json:"schoolId"`
	SchoolName        string     `json:"schoolName"`
	AcademicYear      string     `json:"academicYear"`
	Status            string     `json:"status"`
	SentAt            *time.Time `json:"sentAt"`
	InputCurrency     string     `json:"inputCurrency"`
	FXUSDToLocal      *float64   `json:"fxUsdToLocal"`
	LocalCurrencyCode *string    `json:"localCurrencyCode"`
	ProgramType       string     `json:"programType"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CurrencyMeta is the scenario's currency settings as the builders need them.
func (s *Scenario) CurrencyMeta() finance.CurrencyMeta {
	meta := finance.CurrencyMeta{InputCurrency: finance.NormalizeCurrency(s.InputCurrency), FXUSDToLocal: s.FXUSDToLocal}
	if s.LocalCurrencyCode != nil {
		meta.LocalCurrencyCode = *s.LocalCurrencyCode
	}
	return meta
}

func (s *Scenario) Info() finance.ScenarioInfo {
	return finance.ScenarioInfo{
		ID:           s.ID.String(),
		SchoolName:   s.SchoolName,
		AcademicYear: s.AcademicYear,
		ProgramType:  s.ProgramType,
		Status:       s.Status,
	}
}

// NewScenario holds the fields of a scenario being created.
type NewScenario struct {
	SchoolID          uuid.UUID
	AcademicYear      string
	InputCurrency     string
	FXUSDToLocal      *float64
	LocalCurrencyCode *string
	ProgramType       string
	CreatedByUserID   *uuid.UUID
}

type WorkItem struct {
	ScenarioID     uuid.UUID  `json:"scenarioId"`
	WorkID         string     `json:"workId"`
	State          string     `json:"state"`
	SubmittedAt    *time.Time `json:"submittedAt"`
	ManagerComment *string    `json:"managerComment"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ScenarioInputs is the stored inputs document of a scenario.
type ScenarioInputs struct {
	ScenarioID uuid.UUID `json:"scenarioId"`
	Inputs     []byte    `json:"-"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
