package aoa

import (
	"fizibilite/internal/finance"
)

const normTitle = "Norm Kadro"

// BuildNorm lays out the curriculum matrix, branch and student counts, the
// per-teacher need and the summary figures.
func BuildNorm(m *finance.NormModel) [][]any {
	if m == nil {
		return Placeholder(normTitle)
	}
	title := normTitle
	if m.YearLabel != "" {
		title += " - " + m.YearLabel
	}
	rows := [][]any{{title}, {"Haftalık Azami Ders Saati", m.TeacherWeeklyMaxHours}, {}}

	header := []any{"Öğretmen", "Ders"}
	for _, g := range m.Grades {
		header = append(header, g.Grade)
	}
	header = append(header, "Toplam Saat")
	rows = append(rows, header)

	var totalHours float64
	teacherHours := make(map[string]float64)
	var teacherOrder []string
	for _, c := range m.Curriculum {
		row := []any{c.Teacher, c.Lesson}
		var hours float64
		for i, g := range m.Grades {
			h := 0.0
			if i < len(c.Hours) {
				h = c.Hours[i]
			}
			row = append(row, h)
			hours += h * g.Branches
		}
		rows = append(rows, append(row, hours))
		totalHours += hours
		if _, ok := teacherHours[c.Teacher]; !ok {
			teacherOrder = append(teacherOrder, c.Teacher)
		}
		teacherHours[c.Teacher] += hours
	}
	totalRow := append([]any{"Toplam", nil}, make([]any, len(m.Grades))...)
	rows = append(rows, append(totalRow, totalHours), []any{})

	branches := []any{"Şube Sayısı", nil}
	students := []any{"Öğrenci Sayısı", nil}
	for _, g := range m.Grades {
		branches = append(branches, g.Branches)
		students = append(students, g.Students)
	}
	rows = append(rows, branches, students, []any{})

	rows = append(rows, []any{"Öğretmen", "Toplam Saat", "FTE", "Gerekli Öğretmen"})
	var needed float64
	for _, name := range teacherOrder {
		fte, n := finance.TeacherNeed(teacherHours[name], m.TeacherWeeklyMaxHours)
		rows = append(rows, []any{name, teacherHours[name], fte, n})
		needed += n
	}
	rows = append(rows, []any{"Toplam", totalHours, nil, needed}, []any{})

	_, overall := finance.TeacherNeed(totalHours, m.TeacherWeeklyMaxHours)
	s := m.Summary
	rows = append(rows,
		[]any{"Özet"},
		[]any{"Toplam Ders Saati", totalHours},
		[]any{"Gerekli Öğretmen (Toplam Saat)", overall},
		[]any{"Gerekli Öğretmen (Branş Bazında)", needed},
		[]any{"Okul Öncesi Öğrenci", s.PreschoolStudents},
		[]any{"Okul Öncesi Destek Personeli", s.PreschoolSupportStaff},
		[]any{"Öğrenci Sayısı", s.Students},
		[]any{"Şube Sayısı", s.Classes},
		[]any{"Öğrenci / Öğretmen", num(div(s.Students, needed))},
		[]any{"Öğretmen / Şube", num(div(needed, s.Classes))},
		[]any{"Öğrenci / Şube", num(div(s.Students, s.Classes))},
	)
	return rows
}
