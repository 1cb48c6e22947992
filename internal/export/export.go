// Package export loads everything a scenario's sheets need and builds them,
// caching the intermediate models per inputs revision and predecessor version.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/aoa"
	"fizibilite/internal/cache"
	"fizibilite/internal/finance"
	"fizibilite/internal/logger"
	"fizibilite/internal/models"
	"fizibilite/internal/xlsx"
)

// Sheet identifiers accepted by Build.
const (
	SheetHR         = "hr"
	SheetCapacity   = "capacity"
	SheetNorm       = "norm"
	SheetBasic      = "basic"
	SheetStatements = "statements"
	SheetReport     = "report"
	SheetAll        = "all"
)

// Sheets is the workbook order of every sheet.
var Sheets = []string{SheetBasic, SheetCapacity, SheetNorm, SheetHR, SheetStatements, SheetReport}

var sheetTitles = map[string]string{
	SheetHR:         "İK",
	SheetCapacity:   "Kapasite",
	SheetNorm:       "Norm Kadro",
	SheetBasic:      "Temel Bilgiler",
	SheetStatements: "Finansal Tablolar",
	SheetReport:     "Rapor",
}

// Request selects what to export.
type Request struct {
	Sheet    string
	Currency string
	Year     string
}

// RequestError is a malformed Request.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Normalize lower-cases and validates r, filling the defaults.
func (r Request) Normalize() (Request, error) {
	r.Sheet = strings.ToLower(strings.TrimSpace(r.Sheet))
	if r.Sheet == "" {
		r.Sheet = SheetAll
	}
	if _, ok := sheetTitles[r.Sheet]; !ok && r.Sheet != SheetAll {
		return r, &RequestError{Message: fmt.Sprintf("unknown sheet %q", r.Sheet)}
	}

	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	switch r.Currency {
	case "", "usd", "local":
	default:
		return r, &RequestError{Message: fmt.Sprintf("currency must be usd or local, got %q", r.Currency)}
	}

	r.Year = strings.ToLower(strings.TrimSpace(r.Year))
	if r.Year == "" {
		r.Year = finance.YearKeys[0]
	}
	valid := false
	for _, y := range finance.YearKeys {
		valid = valid || r.Year == y
	}
	if !valid {
		return r, &RequestError{Message: fmt.Sprintf("year must be y1, y2 or y3, got %q", r.Year)}
	}
	return r, nil
}

func (r Request) sheets() []string {
	if r.Sheet == SheetAll {
		return Sheets
	}
	return []string{r.Sheet}
}

// Source is a scenario loaded with its documents, ready for the builders.
type Source struct {
	Scenario *models.Scenario
	Input    finance.BuildInput
	// InputsUpdatedAt and PrevVersion key the cached models.
	InputsUpdatedAt time.Time
	PrevVersion     string
}

// Load reads the scenario, its inputs, its stored results (computed on the
// fly when missing) and its predecessor's results.
func Load(ctx context.Context, q models.Querier, scenarioID uuid.UUID) (*Source, error) {
	log := logger.WithModule("export").WithField("scenario_id", scenarioID)

	s, err := models.GetScenario(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	stored, err := models.GetScenarioInputs(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	in, err := finance.ParseInputs(stored.Inputs)
	if err != nil {
		log.WithError(err).Warn("inputs partially decoded")
	}

	results, err := decodeResults(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = finance.ComputeResults(in, s.InputCurrency)
	}

	b := finance.BuildInput{
		Scenario:     s.Info(),
		Inputs:       in,
		Report:       results,
		CurrencyMeta: s.CurrencyMeta(),
	}

	prev, err := models.GetPrevScenario(ctx, q, s.SchoolID, s.AcademicYear)
	if err != nil {
		return nil, err
	}
	if prev != nil && len(prev.Results) > 0 {
		var pr finance.Results
		if err := json.Unmarshal(prev.Results, &pr); err != nil {
			log.WithError(err).WithField("prev_scenario_id", prev.Scenario.ID).Warn("previous results unreadable")
		} else {
			meta := prev.Scenario.CurrencyMeta()
			b.PrevReport = &pr
			b.PrevCurrencyMeta = &meta
		}
	}

	return &Source{Scenario: s, Input: b, InputsUpdatedAt: stored.UpdatedAt, PrevVersion: PrevVersion(prev)}, nil
}

// PrevVersion identifies the predecessor data a scenario's models compare
// against: its id, stored results and currency. It is empty without a
// predecessor.
func PrevVersion(p *models.PrevScenario) string {
	if p == nil || p.Scenario == nil {
		return ""
	}
	meta := p.Scenario.CurrencyMeta()
	fx := ""
	if meta.FXUSDToLocal != nil {
		fx = strconv.FormatFloat(*meta.FXUSDToLocal, 'g', -1, 64)
	}
	d := xxhash.New()
	fmt.Fprintf(d, "%s|%s|%s|%s", p.Results, meta.InputCurrency, fx, meta.LocalCurrencyCode)
	return fmt.Sprintf("%s.%016x", p.Scenario.ID, d.Sum64())
}

func decodeResults(ctx context.Context, q models.Querier, scenarioID uuid.UUID) (*finance.Results, error) {
	raw, err := models.GetScenarioResults(ctx, q, scenarioID)
	if err != nil || raw == nil {
		return nil, err
	}
	var r finance.Results
	if err := json.Unmarshal(raw, &r); err != nil {
		logger.WithModule("export").WithError(err).WithField("scenario_id", scenarioID).Warn("stored results unreadable, recomputing")
		return nil, nil
	}
	return &r, nil
}

// cached returns the model under key, building and storing it on a miss.
func cached[T any](ctx context.Context, c *cache.Client, key string, build func() *T) *T {
	var m T
	if c.GetJSON(ctx, key, &m) {
		return &m
	}
	built := build()
	c.SetJSON(ctx, key, built)
	return built
}

// CachePrefix covers every cached model of a scenario.
func CachePrefix(scenarioID uuid.UUID) string {
	return cache.Key("export", scenarioID.String()) + ":"
}

// Build turns src into the requested sheets. c may be nil.
func Build(ctx context.Context, c *cache.Client, src *Source, r Request) []xlsx.Sheet {
	b := src.Input
	b.ReportCurrency = r.Currency
	b.Year = r.Year
	key := func(sheet string) string {
		return cache.ExportKey(src.Scenario.ID.String(), src.InputsUpdatedAt, src.PrevVersion, sheet, r.Currency, r.Year)
	}

	var out []xlsx.Sheet
	for _, sheet := range r.sheets() {
		var rows [][]any
		switch sheet {
		case SheetHR:
			rows = aoa.BuildHR(cached(ctx, c, key(sheet), func() *finance.HRModel { return finance.BuildHR(b) }))
		case SheetCapacity:
			rows = aoa.BuildCapacity(cached(ctx, c, key(sheet), func() *finance.CapacityModel { return finance.BuildCapacity(b) }))
		case SheetNorm:
			rows = aoa.BuildNorm(cached(ctx, c, key(sheet), func() *finance.NormModel { return finance.BuildNorm(b) }))
		case SheetBasic:
			rows = aoa.BuildBasicInfo(cached(ctx, c, key(sheet), func() *finance.BasicInfoModel { return finance.BuildBasicInfo(b) }))
		case SheetStatements:
			rows = aoa.BuildStatements(cached(ctx, c, key(sheet), func() *finance.StatementsModel { return finance.BuildStatements(b) }))
		case SheetReport:
			rows = aoa.BuildReport(cached(ctx, c, key(sheet), func() *finance.ReportModel { return finance.BuildReport(b) }))
		}
		out = append(out, xlsx.Sheet{Name: sheetTitles[sheet], Rows: rows})
	}
	logger.WithModule("export").WithFields(logrus.Fields{
		"scenario_id": src.Scenario.ID,
		"sheet":       r.Sheet,
		"currency":    r.Currency,
		"year":        r.Year,
	}).Debug("export built")
	return out
}

// Filename is the download name of an export.
func Filename(s *models.Scenario, r Request) string {
	name := strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '-'
		}
		return c
	}, s.SchoolName)
	if name == "" {
		name = "senaryo"
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", name, s.AcademicYear, r.Sheet)
}
