package aoa

import "fizibilite/internal/finance"

const basicInfoTitle = "Temel Bilgiler"

// WarningPrefix starts every warning line.
const WarningPrefix = "Uyarı: "

// BuildBasicInfo lays out each section as a title row, its warning lines
// and its tables, separated by blank rows.
func BuildBasicInfo(m *finance.BasicInfoModel) [][]any {
	if m == nil {
		return Placeholder(basicInfoTitle)
	}
	title := m.Title
	if title == "" {
		title = basicInfoTitle
	}
	rows := [][]any{{currencyTitle(title, m.Currency)}, {}}

	for _, sec := range m.Sections {
		rows = append(rows, []any{sec.Title})
		for _, w := range sec.Warnings {
			rows = append(rows, []any{WarningPrefix + w})
		}
		for _, t := range sec.Tables {
			if t.Title != "" {
				rows = append(rows, []any{t.Title})
			}
			header := make([]any, len(t.Headers))
			for i, h := range t.Headers {
				header[i] = h
			}
			rows = append(rows, header)
			for _, r := range t.Rows {
				rows = append(rows, append([]any(nil), r...))
			}
		}
		rows = append(rows, []any{})
	}
	return rows
}
