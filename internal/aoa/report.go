package aoa

import (
	"fizibilite/internal/finance"
)

const reportTitle = "Fizibilite Raporu"

// ReportWidth is the number of columns of every report row.
const ReportWidth = 12

// ReportColumns is the column index of each report field. The report
// template merges the cells between these columns.
var ReportColumns = map[string]int{
	"label":  0,
	"detail": 3,
	"y1":     5,
	"y2":     7,
	"y3":     9,
	"share":  11,
}

// ReportSectionRows is the absolute row at which each report section starts.
// A section that overruns pushes the next one down instead of truncating.
var ReportSectionRows = map[string]int{
	finance.ReportTuition:     3,
	finance.ReportCapacity:    12,
	finance.ReportHR:          21,
	finance.ReportRevenues:    33,
	finance.ReportExpenses:    52,
	finance.ReportDiscounts:   76,
	finance.ReportCompetitors: 88,
	finance.ReportPerformance: 98,
}

var yearColumns = [3]string{"y1", "y2", "y3"}

func reportRow(label, detail any, values [3]any, share any) []any {
	row := make([]any, ReportWidth)
	row[ReportColumns["label"]] = label
	row[ReportColumns["detail"]] = detail
	for i, key := range yearColumns {
		row[ReportColumns[key]] = values[i]
	}
	row[ReportColumns["share"]] = share
	return row
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// BuildReport places every section of the detailed report at its fixed row.
// Subtotal and running lines are recomputed from the item lines above them.
func BuildReport(m *finance.ReportModel) [][]any {
	if m == nil {
		return Placeholder(reportTitle)
	}
	title := m.Title
	if title == "" {
		title = reportTitle
	}
	rows := [][]any{
		reportRow(currencyTitle(title, m.Currency), nil, [3]any{}, nil),
		reportRow(optional(m.SchoolName), optional(m.AcademicYear), [3]any{optional(m.Program)}, optional(m.Currency)),
	}

	for _, sec := range m.Sections {
		if start, ok := ReportSectionRows[sec.Key]; ok {
			rows = PadTo(rows, start, ReportWidth)
		}
		rows = append(rows, reportRow(sec.Title, nil, [3]any{}, nil))
		h := sec.Header
		rows = append(rows, reportRow(
			optional(h.Label),
			optional(h.Detail),
			[3]any{optional(h.Values[0]), optional(h.Values[1]), optional(h.Values[2])},
			optional(h.Share),
		))
		rows = append(rows, reportLines(sec.Lines)...)
		for _, w := range sec.Warnings {
			rows = append(rows, reportRow(w, nil, [3]any{}, nil))
		}
	}
	return rows
}

func reportLines(lines []finance.ReportLine) [][]any {
	var out [][]any
	var sinceBreak, section [3]*float64
	for _, l := range lines {
		values := l.Values
		switch l.Kind {
		case finance.LineItem:
			for i := range values {
				sinceBreak[i] = sum(sinceBreak[i], values[i])
				section[i] = sum(section[i], values[i])
			}
		case finance.LineSubtotal:
			values = sinceBreak
			sinceBreak = [3]*float64{}
		case finance.LineRunning:
			values = section
			sinceBreak = [3]*float64{}
		}
		out = append(out, reportRow(l.Label, l.Detail, [3]any{num(values[0]), num(values[1]), num(values[2])}, num(l.Share)))
	}
	return out
}
