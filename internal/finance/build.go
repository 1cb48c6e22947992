package finance

import (
	"fizibilite/internal/kademe"
	"fizibilite/internal/util"
)

// Program types.
const (
	ProgramLocal         = "local"
	ProgramInternational = "international"
)

// ProgramLabel returns the display name of a program type.
func ProgramLabel(programType string) string {
	switch programType {
	case ProgramLocal:
		return "Yerel Program"
	case ProgramInternational:
		return "Uluslararası Program"
	}
	return programType
}

// ScenarioInfo is the slice of the scenario row the builders display.
type ScenarioInfo struct {
	ID           string
	SchoolName   string
	AcademicYear string
	ProgramType  string
	Status       string
}

// BuildInput carries everything a model builder may read. Any pointer may be
// nil; builders treat missing parts as empty.
type BuildInput struct {
	Scenario   ScenarioInfo
	Inputs     *Inputs
	Report     *Results
	PrevReport *Results
	// PrevCurrencyMeta denominates PrevReport. When nil the previous results
	// are read in their own currency at this scenario's rate.
	PrevCurrencyMeta *CurrencyMeta
	CurrencyMeta     CurrencyMeta
	ReportCurrency   string
	// Year selects the projection year for single-year models ("y1" if empty).
	Year string
}

func (b BuildInput) inputs() *Inputs {
	if b.Inputs == nil {
		return &Inputs{}
	}
	return b.Inputs
}

func (b BuildInput) converter() Converter {
	return NewConverter(b.CurrencyMeta, b.ReportCurrency)
}

// prevConverter converts the previous scenario's amounts to the currency
// conv actually shows: its display currency, or its input currency when conv
// has no usable rate.
func (b BuildInput) prevConverter(conv Converter) Converter {
	meta := b.CurrencyMeta
	if b.PrevCurrencyMeta != nil {
		meta = *b.PrevCurrencyMeta
	} else if b.PrevReport != nil {
		if c := NormalizeCurrency(b.PrevReport.Currency); c != "" {
			meta.InputCurrency = c
		}
	}
	to := conv.Display()
	if !conv.Valid() {
		to = conv.from
	}
	return NewConverter(meta, to)
}

func (b BuildInput) yearLabels() [3]string {
	return util.ProjectionYearLabels(b.Scenario.AcademicYear)
}

func (b BuildInput) yearIndex() int {
	for i, k := range YearKeys {
		if k == b.Year {
			return i
		}
	}
	return 0
}

type gradeTotals struct {
	branches float64
	students float64
}

// aggregateGrades sums branch and student counts per canonical grade,
// dropping rows whose grade cannot be read.
func aggregateGrades(rows []GradeRow) map[string]gradeTotals {
	out := make(map[string]gradeTotals, len(rows))
	for _, r := range rows {
		g, ok := kademe.NormalizeGrade(r.Grade)
		if !ok {
			continue
		}
		t := out[g]
		t.branches += r.Branches.OrZero()
		t.students += r.Students.OrZero()
		out[g] = t
	}
	return out
}

// bandStudents sums students per enabled band. Grades no enabled band
// covers are ignored.
func bandStudents(cfg kademe.Config, rows []GradeRow) map[string]float64 {
	out := make(map[string]float64, len(kademe.Bands))
	for g, t := range aggregateGrades(rows) {
		if band, ok := cfg.BandOf(g); ok {
			out[band] += t.students
		}
	}
	return out
}

// projectedFees returns the tuition fee of a band for each projection year.
func projectedFees(in *Inputs, band string) [3]float64 {
	var fees [3]float64
	fees[0] = in.Revenues.UnitFee[band].OrZero()
	for i := 1; i < 3; i++ {
		fees[i] = fees[i-1] * (1 + in.BasicInfo.FeeIncrease.At(i).OrZero())
	}
	return fees
}
