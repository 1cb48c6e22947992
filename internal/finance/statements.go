package finance

type StatementRow struct {
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Values  [3]*float64 `json:"values"`
	Percent bool        `json:"percent"`
}

type StatementsModel struct {
	Currency   string         `json:"currency"`
	YearLabels [3]string      `json:"yearLabels"`
	Rows       []StatementRow `json:"rows"`
}

type statementDef struct {
	key     string
	label   string
	percent bool
	value   func(y *YearResult) *float64
}

var statementDefs = []statementDef{
	{key: "netIncome", label: "Net Gelir", value: func(y *YearResult) *float64 { return ptr(y.Income.NetIncome) }},
	{key: "netTurnover", label: "Net Ciro", value: func(y *YearResult) *float64 { return ptr(y.Income.NetTurnover) }},
	{key: "totalExpenses", label: "Toplam Gider", value: func(y *YearResult) *float64 { return ptr(y.Expenses.Total) }},
	{key: "netResult", label: "Net Sonuç", value: func(y *YearResult) *float64 { return ptr(y.Result.NetResult) }},
	{key: "profitMargin", label: "Kâr Marjı (%)", percent: true, value: func(y *YearResult) *float64 { return y.KPI.ProfitMargin }},
}

// BuildStatements extracts the headline figures of the stored results.
// Without results every value is nil.
func BuildStatements(b BuildInput) *StatementsModel {
	conv := b.converter()
	m := &StatementsModel{Currency: conv.Code(), YearLabels: b.yearLabels()}

	for _, def := range statementDefs {
		row := StatementRow{Key: def.key, Label: def.label, Percent: def.percent}
		for i := range YearKeys {
			y := b.Report.Year(i)
			if y == nil {
				continue
			}
			v := def.value(y)
			if def.percent {
				row.Values[i] = scalePtr(v, 100)
			} else {
				row.Values[i] = conv.MoneyPtr(v)
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}
