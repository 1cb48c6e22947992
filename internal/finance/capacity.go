package finance

// Periods are the capacity periods: current followed by the projection years.
var Periods = [4]string{"cur", "y1", "y2", "y3"}

type CapacityRow struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Capacity    [4]*float64 `json:"capacity"`
	Students    [4]*float64 `json:"students"`
	Utilization [4]*float64 `json:"utilization"`
}

// CapacityGrowth holds one value per consecutive period pair
// (current→Y1, Y1→Y2, Y2→Y3).
type CapacityGrowth struct {
	Label  string      `json:"label"`
	Values [3]*float64 `json:"values"`
}

type CapacityModel struct {
	PeriodLabels [4]string      `json:"periodLabels"`
	Rows         []CapacityRow  `json:"rows"`
	Total        CapacityRow    `json:"total"`
	Delta        CapacityGrowth `json:"delta"`
	Rate         CapacityGrowth `json:"rate"`
}

// BuildCapacity builds the per-band capacity and utilization model.
func BuildCapacity(b BuildInput) *CapacityModel {
	in := b.inputs()
	cfg := in.KademeConfig()
	years := b.yearLabels()

	m := &CapacityModel{
		PeriodLabels: [4]string{"Mevcut", years[0], years[1], years[2]},
		Total:        CapacityRow{Key: "total", Label: "Toplam"},
		Delta:        CapacityGrowth{Label: "Öğrenci Artışı"},
		Rate:         CapacityGrowth{Label: "Öğrenci Artış Oranı (%)"},
	}

	var students [4]map[string]float64
	for p, period := range Periods {
		if rows := in.GradesFor(period); len(rows) > 0 {
			students[p] = bandStudents(cfg, rows)
		}
	}

	for _, band := range cfg.EnabledBands() {
		row := CapacityRow{Key: band, Label: cfg.Label(band)}
		caps := in.Capacity.ByKademe[band]
		for p := range Periods {
			row.Capacity[p] = caps.At(p).OrNull()
			if students[p] != nil {
				row.Students[p] = ptr(students[p][band])
			}
			row.Utilization[p] = utilization(row.Students[p], row.Capacity[p])
		}
		m.Rows = append(m.Rows, row)
	}

	m.Total = CapacityTotal(m.Rows)
	m.Delta.Values, m.Rate.Values = CapacityGrowthValues(m.Total.Students)
	return m
}

// CapacityTotal sums capacity rows per period and recomputes utilization.
func CapacityTotal(rows []CapacityRow) CapacityRow {
	total := CapacityRow{Key: "total", Label: "Toplam"}
	for p := range Periods {
		var caps, studs []*float64
		for _, r := range rows {
			caps = append(caps, r.Capacity[p])
			studs = append(studs, r.Students[p])
		}
		total.Capacity[p] = sumPtrs(caps...)
		total.Students[p] = sumPtrs(studs...)
		total.Utilization[p] = utilization(total.Students[p], total.Capacity[p])
	}
	return total
}

// CapacityGrowthValues returns the student delta and growth rate (percent)
// for each consecutive period pair.
func CapacityGrowthValues(students [4]*float64) (delta, rate [3]*float64) {
	for i := 0; i < 3; i++ {
		prev, next := students[i], students[i+1]
		if prev == nil || next == nil {
			continue
		}
		delta[i] = ptr(*next - *prev)
		rate[i] = percentOf(*next-*prev, *prev)
	}
	return delta, rate
}

func utilization(students, capacity *float64) *float64 {
	if students == nil || capacity == nil {
		return nil
	}
	return percentOf(*students, *capacity)
}

// StudentTotals returns the total students per period over enabled bands.
func (m *CapacityModel) StudentTotals() [4]*float64 {
	if m == nil {
		return [4]*float64{}
	}
	return m.Total.Students
}

// bandRow finds the row of a band, if that band is enabled.
func (m *CapacityModel) bandRow(band string) (CapacityRow, bool) {
	if m == nil {
		return CapacityRow{}, false
	}
	for _, r := range m.Rows {
		if r.Key == band {
			return r, true
		}
	}
	return CapacityRow{}, false
}
