package aoa

import "fizibilite/internal/finance"

const statementsTitle = "Finansal Tablolar"

func BuildStatements(m *finance.StatementsModel) [][]any {
	if m == nil {
		return Placeholder(statementsTitle)
	}
	rows := [][]any{
		{currencyTitle(statementsTitle, m.Currency)},
		{},
		{"Kalem", m.YearLabels[0], m.YearLabels[1], m.YearLabels[2]},
	}
	for _, r := range m.Rows {
		rows = append(rows, []any{r.Label, num(r.Values[0]), num(r.Values[1]), num(r.Values[2])})
	}
	return rows
}
