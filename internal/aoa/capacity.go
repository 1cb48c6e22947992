package aoa

import "fizibilite/internal/finance"

const capacityTitle = "Kapasite Planlaması"

// BuildCapacity lays out capacity, students and utilization per band and
// period, followed by the growth rows.
func BuildCapacity(m *finance.CapacityModel) [][]any {
	if m == nil {
		return Placeholder(capacityTitle)
	}
	rows := [][]any{{capacityTitle}, {}}

	header := []any{"Kademe"}
	for _, p := range m.PeriodLabels {
		header = append(header, p+" Kapasite", p+" Öğrenci", p+" Doluluk (%)")
	}
	rows = append(rows, header)

	capacityRow := func(r finance.CapacityRow) []any {
		row := []any{r.Label}
		for p := range finance.Periods {
			row = append(row, num(r.Capacity[p]), num(r.Students[p]), num(r.Utilization[p]))
		}
		return row
	}
	for _, r := range m.Rows {
		rows = append(rows, capacityRow(r))
	}
	total := finance.CapacityTotal(m.Rows)
	rows = append(rows, capacityRow(total), []any{})

	rows = append(rows, []any{
		"Büyüme",
		m.PeriodLabels[0] + " → " + m.PeriodLabels[1],
		m.PeriodLabels[1] + " → " + m.PeriodLabels[2],
		m.PeriodLabels[2] + " → " + m.PeriodLabels[3],
	})
	delta, rate := finance.CapacityGrowthValues(total.Students)
	rows = append(rows,
		[]any{m.Delta.Label, num(delta[0]), num(delta[1]), num(delta[2])},
		[]any{m.Rate.Label, num(rate[0]), num(rate[1]), num(rate[2])},
	)
	return rows
}
