package finance

import (
	"encoding/json"
	"errors"
	"fmt"

	"fizibilite/internal/kademe"
)

// YearKeys are the projection year keys used throughout stored JSON.
var YearKeys = [3]string{"y1", "y2", "y3"}

// YearValues is a value per projection year.
type YearValues struct {
	Y1 Num `json:"y1"`
	Y2 Num `json:"y2"`
	Y3 Num `json:"y3"`
}

// At returns the value for year index i (0-based).
func (y YearValues) At(i int) Num {
	switch i {
	case 0:
		return y.Y1
	case 1:
		return y.Y2
	case 2:
		return y.Y3
	}
	return Num{}
}

// PeriodValues is a value for the current period plus each projection year.
type PeriodValues struct {
	Cur Num `json:"cur"`
	Y1  Num `json:"y1"`
	Y2  Num `json:"y2"`
	Y3  Num `json:"y3"`
}

// At returns the value for period index i: 0 is current, 1..3 the years.
func (p PeriodValues) At(i int) Num {
	switch i {
	case 0:
		return p.Cur
	case 1:
		return p.Y1
	case 2:
		return p.Y2
	case 3:
		return p.Y3
	}
	return Num{}
}

// Inputs is the editable document stored per scenario.
type Inputs struct {
	BasicInfo   BasicInfo             `json:"temelBilgiler"`
	Kademeler   kademe.RawConfig      `json:"kademeler"`
	Capacity    CapacityInputs        `json:"kapasite"`
	Grades      []GradeRow            `json:"gradesCurrent"`
	GradesYears map[string][]GradeRow `json:"gradesYears"`
	Norm        NormInputs            `json:"norm"`
	HR          HRInputs              `json:"ik"`
	Revenues    RevenueInputs         `json:"gelirler"`
	Expenses    ExpenseInputs         `json:"giderler"`
	Discounts   []DiscountInput       `json:"indirimler"`
}

type BasicInfo struct {
	SchoolName  string         `json:"okulAdi"`
	Country     string         `json:"ulke"`
	City        string         `json:"sehir"`
	Region      string         `json:"bolge"`
	FoundedYear Num            `json:"kurulusYili"`
	Inflation   YearValues     `json:"enflasyon"`
	FeeIncrease YearValues     `json:"ucretArtisi"`
	CurrentHR   map[string]Num `json:"ikMevcut"`
	Competitors []Competitor   `json:"rakipler"`
	Performance Performance    `json:"performans"`
}

type Competitor struct {
	Name string         `json:"ad"`
	Fees map[string]Num `json:"ucretler"`
}

// Performance holds the planned and realized figures of the prior period,
// in the scenario's input currency.
type Performance struct {
	PlannedStudents Num `json:"planlananOgrenci"`
	ActualStudents  Num `json:"gerceklesenOgrenci"`
	PlannedRevenue  Num `json:"planlananGelir"`
	ActualRevenue   Num `json:"gerceklesenGelir"`
	PlannedExpenses Num `json:"planlananGider"`
	ActualExpenses  Num `json:"gerceklesenGider"`
	RealizedFX      Num `json:"gerceklesenKur"`
}

type CapacityInputs struct {
	ByKademe map[string]PeriodValues `json:"kademeler"`
}

// GradeRow is the branch and student count of one grade in one period.
type GradeRow struct {
	Grade    any `json:"grade"`
	Branches Num `json:"subeSayisi"`
	Students Num `json:"ogrenciSayisi"`
}

type NormInputs struct {
	TeacherWeeklyMaxHours Num `json:"teacherWeeklyMaxHours"`
	// CurriculumWeeklyHours is keyed by "teacher||lesson" and then by grade;
	// use Curriculum for the parsed form.
	CurriculumWeeklyHours map[string]map[string]Num `json:"curriculumWeeklyHours"`
}

type HRInputs struct {
	UnitCostRatio Num                                  `json:"unitCostRatio"`
	UnitCosts     map[string]map[string]Num            `json:"unitCosts"`
	Headcounts    map[string]map[string]map[string]Num `json:"headcounts"`
}

// AmountLine is a named money line with a value per projection year.
type AmountLine struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Amounts YearValues `json:"amounts"`
}

type RevenueInputs struct {
	UnitFee     map[string]Num `json:"unitFee"`
	Activity    []AmountLine   `json:"faaliyet"`
	NonActivity []AmountLine   `json:"faaliyetDisi"`
}

type ExpenseInputs struct {
	Operating []AmountLine `json:"isletme"`
}

// Discount kinds.
const (
	DiscountScholarship = "burs"
	DiscountReduction   = "indirim"
)

type DiscountInput struct {
	Name     string     `json:"ad"`
	Kind     string     `json:"tur"`
	Rate     Num        `json:"oran"`
	Students YearValues `json:"ogrenciSayisi"`
}

// KademeConfig returns the normalized band configuration.
func (in *Inputs) KademeConfig() kademe.Config {
	if in == nil {
		return kademe.DefaultConfig()
	}
	return kademe.Normalize(in.Kademeler)
}

// GradesFor returns the grade rows of a period: "cur" or a year key.
func (in *Inputs) GradesFor(period string) []GradeRow {
	if in == nil {
		return nil
	}
	if period == "cur" {
		return in.Grades
	}
	return in.GradesYears[period]
}

// ParseInputs decodes a stored inputs document section by section, so one
// malformed section does not discard the others. The returned Inputs is
// always usable; the error lists the sections that failed to decode.
func ParseInputs(data []byte) (*Inputs, error) {
	in := &Inputs{}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return in, fmt.Errorf("inputs must be a JSON object: %w", err)
	}

	var errs []error
	decode := func(key string, dst any) {
		raw, ok := sections[key]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	decode("temelBilgiler", &in.BasicInfo)
	decode("kademeler", &in.Kademeler)
	decode("kapasite", &in.Capacity)
	decode("gradesCurrent", &in.Grades)
	decode("gradesYears", &in.GradesYears)
	decode("norm", &in.Norm)
	decode("ik", &in.HR)
	decode("gelirler", &in.Revenues)
	decode("giderler", &in.Expenses)
	decode("indirimler", &in.Discounts)

	return in, errors.Join(errs...)
}
