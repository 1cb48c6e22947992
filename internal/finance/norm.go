package finance

import (
	"math"
	"sort"
	"strings"

	"fizibilite/internal/kademe"
)

const (
	DefaultTeacherWeeklyMaxHours = 24
	// PreschoolStudentsPerStaff is the number of preschool students one
	// support staff member covers.
	PreschoolStudentsPerStaff = 50
	curriculumKeySeparator    = "||"
)

// CurriculumKey identifies one curriculum row.
type CurriculumKey struct {
	Teacher string
	Lesson  string
}

// ParseCurriculumKey splits a stored "teacher||lesson" key on the first
// separator. A teacher name that itself contains "||" is split wrongly;
// stored keys carry no escaping, so that case cannot be told apart.
func ParseCurriculumKey(s string) CurriculumKey {
	teacher, lesson, _ := strings.Cut(s, curriculumKeySeparator)
	return CurriculumKey{Teacher: strings.TrimSpace(teacher), Lesson: strings.TrimSpace(lesson)}
}

func (k CurriculumKey) String() string {
	return k.Teacher + curriculumKeySeparator + k.Lesson
}

// Curriculum returns the weekly-hours matrix keyed by CurriculumKey. Stored
// keys that parse to the same pair are merged by adding their hours.
func (n NormInputs) Curriculum() map[CurriculumKey]map[string]float64 {
	out := make(map[CurriculumKey]map[string]float64, len(n.CurriculumWeeklyHours))
	for raw, byGrade := range n.CurriculumWeeklyHours {
		key := ParseCurriculumKey(raw)
		if key.Teacher == "" {
			continue
		}
		hours := out[key]
		if hours == nil {
			hours = make(map[string]float64, len(byGrade))
			out[key] = hours
		}
		for g, h := range byGrade {
			if grade, ok := kademe.NormalizeGrade(g); ok {
				hours[grade] += h.OrZero()
			}
		}
	}
	return out
}

type NormGradeColumn struct {
	Grade    string  `json:"grade"`
	Branches float64 `json:"branches"`
	Students float64 `json:"students"`
}

type NormCurriculumRow struct {
	Teacher string `json:"teacher"`
	Lesson  string `json:"lesson"`
	// Hours holds the weekly hours per branch, aligned with NormModel.Grades.
	Hours      []float64 `json:"hours"`
	TotalHours float64   `json:"totalHours"`
}

type NormTeacherRow struct {
	Teacher    string  `json:"teacher"`
	TotalHours float64 `json:"totalHours"`
	FTE        float64 `json:"fte"`
	Needed     float64 `json:"needed"`
}

type NormSummary struct {
	TotalHours                float64  `json:"totalHours"`
	RequiredTeachers          float64  `json:"requiredTeachers"`
	RequiredTeachersByTeacher float64  `json:"requiredTeachersByTeacher"`
	PreschoolStudents         float64  `json:"preschoolStudents"`
	PreschoolSupportStaff     float64  `json:"preschoolSupportStaff"`
	Students                  float64  `json:"students"`
	Classes                   float64  `json:"classes"`
	StudentPerTeacher         *float64 `json:"studentPerTeacher"`
	TeacherPerClass           *float64 `json:"teacherPerClass"`
	StudentPerClass           *float64 `json:"studentPerClass"`
}

type NormModel struct {
	Year                  string              `json:"year"`
	YearLabel             string              `json:"yearLabel"`
	TeacherWeeklyMaxHours float64             `json:"teacherWeeklyMaxHours"`
	Grades                []NormGradeColumn   `json:"grades"`
	Curriculum            []NormCurriculumRow `json:"curriculum"`
	Teachers              []NormTeacherRow    `json:"teachers"`
	Summary               NormSummary         `json:"summary"`
}

// TeacherNeed returns the FTE and the whole number of teachers needed to
// cover hours at maxHours per teacher.
func TeacherNeed(hours, maxHours float64) (fte, needed float64) {
	if maxHours <= 0 {
		return 0, 0
	}
	fte = hours / maxHours
	return fte, math.Ceil(fte)
}

// BuildNorm builds the teacher norm model for the selected year.
func BuildNorm(b BuildInput) *NormModel {
	in := b.inputs()
	cfg := in.KademeConfig()
	yi := b.yearIndex()
	labels := b.yearLabels()

	maxHours := in.Norm.TeacherWeeklyMaxHours.OrZero()
	if maxHours <= 0 {
		maxHours = DefaultTeacherWeeklyMaxHours
	}

	m := &NormModel{Year: YearKeys[yi], YearLabel: labels[yi], TeacherWeeklyMaxHours: maxHours}

	totals := aggregateGrades(in.GradesFor(YearKeys[yi]))
	visible := cfg.VisibleGrades()
	for _, g := range visible {
		t := totals[g]
		m.Grades = append(m.Grades, NormGradeColumn{Grade: g, Branches: t.branches, Students: t.students})
		m.Summary.Students += t.students
		m.Summary.Classes += t.branches
		if band, ok := cfg.BandOf(g); ok && band == kademe.OkulOncesi {
			m.Summary.PreschoolStudents += t.students
		}
	}

	curriculum := in.Norm.Curriculum()
	keys := make([]CurriculumKey, 0, len(curriculum))
	for k := range curriculum {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Teacher != keys[j].Teacher {
			return keys[i].Teacher < keys[j].Teacher
		}
		return keys[i].Lesson < keys[j].Lesson
	})

	teacherHours := make(map[string]float64)
	var teacherOrder []string
	for _, k := range keys {
		row := NormCurriculumRow{Teacher: k.Teacher, Lesson: k.Lesson, Hours: make([]float64, len(visible))}
		for i, col := range m.Grades {
			h := curriculum[k][col.Grade]
			row.Hours[i] = h
			row.TotalHours += h * col.Branches
		}
		m.Curriculum = append(m.Curriculum, row)
		m.Summary.TotalHours += row.TotalHours

		if _, seen := teacherHours[k.Teacher]; !seen {
			teacherOrder = append(teacherOrder, k.Teacher)
		}
		teacherHours[k.Teacher] += row.TotalHours
	}

	for _, name := range teacherOrder {
		fte, needed := TeacherNeed(teacherHours[name], maxHours)
		m.Teachers = append(m.Teachers, NormTeacherRow{Teacher: name, TotalHours: teacherHours[name], FTE: fte, Needed: needed})
		m.Summary.RequiredTeachersByTeacher += needed
	}

	_, m.Summary.RequiredTeachers = TeacherNeed(m.Summary.TotalHours, maxHours)
	m.Summary.PreschoolSupportStaff = math.Ceil(m.Summary.PreschoolStudents / PreschoolStudentsPerStaff)

	teachers := m.Summary.RequiredTeachersByTeacher
	m.Summary.StudentPerTeacher = ratio(m.Summary.Students, teachers)
	m.Summary.TeacherPerClass = ratio(teachers, m.Summary.Classes)
	m.Summary.StudentPerClass = ratio(m.Summary.Students, m.Summary.Classes)
	return m
}
