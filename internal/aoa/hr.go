package aoa

import "fizibilite/internal/finance"

const hrTitle = "İnsan Kaynakları Planı"

// BuildHR lays out the staffing model: the level/role matrix, a per-role
// summary and the salary bucket table.
func BuildHR(m *finance.HRModel) [][]any {
	if m == nil {
		return Placeholder(hrTitle)
	}
	rows := [][]any{{currencyTitle(hrTitle, m.Currency)}, {}}

	header := []any{"Kademe / Rol"}
	for _, y := range m.YearLabels {
		header = append(header, y+" Birim Maliyet", y+" Kişi", y+" Toplam")
	}
	rows = append(rows, header)

	var grandHC, grandAnnual [3]float64
	for _, level := range m.Levels {
		rows = append(rows, []any{level.Label})
		var hc, annual [3]float64
		for _, role := range level.Roles {
			row := []any{role.Label}
			for i := 0; i < 3; i++ {
				row = append(row, role.UnitCost[i], role.Headcount[i], role.Annual[i])
				hc[i] += role.Headcount[i]
				annual[i] += role.Annual[i]
			}
			rows = append(rows, row)
		}
		total := []any{"Toplam"}
		for i := 0; i < 3; i++ {
			total = append(total, nil, hc[i], annual[i])
			grandHC[i] += hc[i]
			grandAnnual[i] += annual[i]
		}
		rows = append(rows, total)
	}
	grand := []any{"Genel Toplam"}
	for i := 0; i < 3; i++ {
		grand = append(grand, nil, grandHC[i], grandAnnual[i])
	}
	rows = append(rows, grand, []any{})

	rows = append(rows, []any{"Rol Bazında Özet"})
	header = []any{"Rol"}
	for _, y := range m.YearLabels {
		header = append(header, y+" Kişi", y+" Yıllık Maliyet", y+" Ort. Aylık Maliyet")
	}
	rows = append(rows, header)
	for _, role := range m.Roles {
		row := []any{role.Label}
		for i := 0; i < 3; i++ {
			row = append(row, role.Headcount[i], role.Annual[i], num(div(role.Annual[i], role.Headcount[i]*12)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, []any{})

	rows = append(rows, []any{"Maaş Gider Dağılımı"})
	rows = append(rows, []any{"Kalem", m.YearLabels[0], m.YearLabels[1], m.YearLabels[2]})
	var bucketTotal [3]float64
	for _, b := range m.Buckets {
		rows = append(rows, []any{b.Label, b.Amounts[0], b.Amounts[1], b.Amounts[2]})
		for i := 0; i < 3; i++ {
			bucketTotal[i] += b.Amounts[i]
		}
	}
	rows = append(rows, []any{"Toplam", bucketTotal[0], bucketTotal[1], bucketTotal[2]})
	return rows
}
