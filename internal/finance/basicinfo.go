package finance

import (
	"fizibilite/internal/kademe"
)

// Table is a sheet-shaped block. Row cells are string, float64 or nil.
type Table struct {
	Title   string   `json:"title,omitempty"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Section groups tables under a title. Warnings are rendered as text lines.
type Section struct {
	Title    string   `json:"title"`
	Tables   []Table  `json:"tables"`
	Warnings []string `json:"warnings,omitempty"`
}

type BasicInfoModel struct {
	Title    string    `json:"title"`
	Currency string    `json:"currency"`
	Sections []Section `json:"sections"`
}

// MissingFXWarning is shown when realized amounts cannot be converted.
const MissingFXWarning = "Kur bilgisi eksik: gerçekleşen tutarlar görüntüleme para birimine çevrilemedi."

// cell turns a nullable number into a sheet cell.
func cell(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// BuildBasicInfo assembles the descriptive sections of a scenario.
func BuildBasicInfo(b BuildInput) *BasicInfoModel {
	in := b.inputs()
	conv := b.converter()
	cfg := in.KademeConfig()
	years := b.yearLabels()
	yearHeaders := []string{"Parametre", years[0], years[1], years[2]}

	info := in.BasicInfo
	schoolName := info.SchoolName
	if schoolName == "" {
		schoolName = b.Scenario.SchoolName
	}

	m := &BasicInfoModel{Title: "Temel Bilgiler", Currency: conv.Code()}
	fieldHeaders := []string{"Alan", "Değer"}

	m.Sections = append(m.Sections, Section{Title: "Okul Bilgileri", Tables: []Table{{
		Headers: fieldHeaders,
		Rows: [][]any{
			{"Okul Adı", textOrNil(schoolName)},
			{"Akademik Yıl", textOrNil(b.Scenario.AcademicYear)},
			{"Senaryo Durumu", textOrNil(b.Scenario.Status)},
			{"Para Birimi", conv.Code()},
			{"Kuruluş Yılı", cell(info.FoundedYear.OrNull())},
		},
	}}})

	m.Sections = append(m.Sections, Section{Title: "Bölge Bilgileri", Tables: []Table{{
		Headers: fieldHeaders,
		Rows: [][]any{
			{"Ülke", textOrNil(info.Country)},
			{"Şehir", textOrNil(info.City)},
			{"Bölge", textOrNil(info.Region)},
		},
	}}})

	m.Sections = append(m.Sections, Section{Title: "Program Türü", Tables: []Table{{
		Headers: fieldHeaders,
		Rows:    [][]any{{"Program", textOrNil(ProgramLabel(b.Scenario.ProgramType))}},
	}}})

	m.Sections = append(m.Sections, feeSection(b, in, conv, cfg, yearHeaders))
	m.Sections = append(m.Sections, kademeSection(cfg))
	m.Sections = append(m.Sections, hrPlanSection(in, cfg))
	m.Sections = append(m.Sections, discountCountSection(in, years))
	m.Sections = append(m.Sections, competitorSection(in, conv, cfg))
	m.Sections = append(m.Sections, projectionSection(b))
	m.Sections = append(m.Sections, performanceSection(b, in, conv))
	return m
}

func feeSection(b BuildInput, in *Inputs, conv Converter, cfg kademe.Config, yearHeaders []string) Section {
	info := in.BasicInfo
	params := Table{
		Headers: yearHeaders,
		Rows: [][]any{
			{"Enflasyon (%)", cell(scalePtr(info.Inflation.Y1.OrNull(), 100)), cell(scalePtr(info.Inflation.Y2.OrNull(), 100)), cell(scalePtr(info.Inflation.Y3.OrNull(), 100))},
			{"Ücret Artışı (%)", nil, cell(scalePtr(info.FeeIncrease.Y2.OrNull(), 100)), cell(scalePtr(info.FeeIncrease.Y3.OrNull(), 100))},
			{"Birim Maliyet Artış Oranı (%)", nil, cell(scalePtr(in.HR.UnitCostRatio.OrNull(), 100)), cell(scalePtr(in.HR.UnitCostRatio.OrNull(), 100))},
			{"USD/Yerel Kur", cell(b.CurrencyMeta.FXUSDToLocal), nil, nil},
		},
	}

	fees := Table{Title: "Öğrenim Ücretleri (" + conv.Code() + ")", Headers: append([]string{"Kademe"}, yearHeaders[1:]...)}
	for _, band := range cfg.EnabledBands() {
		if _, ok := in.Revenues.UnitFee[band]; !ok {
			fees.Rows = append(fees.Rows, []any{cfg.Label(band), nil, nil, nil})
			continue
		}
		projected := conv.MoneyYears(projectedFees(in, band))
		fees.Rows = append(fees.Rows, []any{cfg.Label(band), projected[0], projected[1], projected[2]})
	}
	return Section{Title: "Ücret Parametreleri", Tables: []Table{params, fees}}
}

func kademeSection(cfg kademe.Config) Section {
	t := Table{Headers: []string{"Kademe", "Durum", "Başlangıç", "Bitiş"}}
	for _, band := range kademe.Bands {
		r := cfg[band]
		status := "Pasif"
		if r.Enabled {
			status = "Aktif"
		}
		t.Rows = append(t.Rows, []any{cfg.Label(band), status, r.From, r.To})
	}
	return Section{Title: "Kademe Yapısı", Tables: []Table{t}}
}

func hrPlanSection(in *Inputs, cfg kademe.Config) Section {
	t := Table{Headers: []string{"Birim", "Mevcut", "Planlanan (1. Yıl)", "Fark"}}
	var curTotal, planTotal []*float64
	for _, level := range HRLevels {
		label := level.Label
		if label == "" {
			label = cfg.Label(level.Key)
		}
		current := in.BasicInfo.CurrentHR[level.Key].OrNull()
		planned := 0.0
		for _, n := range in.HR.Headcounts["y1"][level.Key] {
			planned += n.OrZero()
		}
		var diff *float64
		if current != nil {
			diff = ptr(planned - *current)
		}
		t.Rows = append(t.Rows, []any{label, cell(current), planned, cell(diff)})
		curTotal = append(curTotal, current)
		planTotal = append(planTotal, ptr(planned))
	}
	cur, plan := sumPtrs(curTotal...), sumPtrs(planTotal...)
	var diff *float64
	if cur != nil && plan != nil {
		diff = ptr(*plan - *cur)
	}
	t.Rows = append(t.Rows, []any{"Toplam", cell(cur), cell(plan), cell(diff)})
	return Section{Title: "İK Mevcut / Planlanan", Tables: []Table{t}}
}

func discountKindLabel(kind string) string {
	switch kind {
	case DiscountScholarship:
		return "Burs"
	case DiscountReduction:
		return "İndirim"
	}
	return kind
}

func discountCountSection(in *Inputs, years [3]string) Section {
	t := Table{Headers: []string{"Ad", "Tür", "Oran (%)", years[0], years[1], years[2]}}
	var totals [3]float64
	for _, d := range in.Discounts {
		row := []any{textOrNil(d.Name), textOrNil(discountKindLabel(d.Kind)), cell(scalePtr(d.Rate.OrNull(), 100))}
		for i := 0; i < 3; i++ {
			row = append(row, cell(d.Students.At(i).OrNull()))
			totals[i] += d.Students.At(i).OrZero()
		}
		t.Rows = append(t.Rows, row)
	}
	t.Rows = append(t.Rows, []any{"Toplam", nil, nil, totals[0], totals[1], totals[2]})
	return Section{Title: "Burs ve İndirim Öğrenci Sayıları", Tables: []Table{t}}
}

func competitorSection(in *Inputs, conv Converter, cfg kademe.Config) Section {
	bands := cfg.EnabledBands()
	headers := []string{"Okul"}
	for _, band := range bands {
		headers = append(headers, cfg.Label(band))
	}
	t := Table{Title: "Yıllık Ücretler (" + conv.Code() + ")", Headers: headers}
	for _, c := range in.BasicInfo.Competitors {
		row := []any{textOrNil(c.Name)}
		for _, band := range bands {
			row = append(row, cell(conv.MoneyPtr(c.Fees[band].OrNull())))
		}
		t.Rows = append(t.Rows, row)
	}
	return Section{Title: "Rakip Okul Ücretleri", Tables: []Table{t}}
}

func projectionSection(b BuildInput) Section {
	capacity := BuildCapacity(b)
	t := Table{Headers: append([]string{"Kademe"}, capacity.PeriodLabels[:]...)}
	rows := append(append([]CapacityRow(nil), capacity.Rows...), capacity.Total)
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Label, cell(r.Students[0]), cell(r.Students[1]), cell(r.Students[2]), cell(r.Students[3])})
	}
	return Section{Title: "Öğrenci Projeksiyonu", Tables: []Table{t}}
}

// performanceSection compares the prior period plan with realized figures.
// Planned values fall back to the previous scenario's first-year results.
// Money needs the realized rate, or the stored rate, when the display
// currency differs from the input currency.
func performanceSection(b BuildInput, in *Inputs, conv Converter) Section {
	perf := in.BasicInfo.Performance
	prev := b.PrevReport.Year(0)
	// Previous results are brought into this scenario's input currency first.
	prevConv := b.prevConverter(NewConverter(b.CurrencyMeta, ""))
	prevUsed := false

	planned := func(n Num, money bool, fromPrev func(*YearResult) float64) *float64 {
		if n.Valid {
			return n.OrNull()
		}
		if prev == nil {
			return nil
		}
		v := ptr(fromPrev(prev))
		if money {
			prevUsed = true
			return prevConv.MoneyOrNull(v)
		}
		return v
	}

	perfConv := conv.WithFX(perf.RealizedFX.OrNull())
	sec := Section{Title: "Önceki Dönem Performansı"}
	if !perfConv.Valid() {
		sec.Warnings = append(sec.Warnings, MissingFXWarning)
	}

	t := Table{Headers: []string{"Gösterge", "Planlanan", "Gerçekleşen", "Fark", "Fark (%)"}}
	addRow := func(label string, plan, actual *float64, money bool) {
		if money {
			plan, actual = perfConv.MoneyOrNull(plan), perfConv.MoneyOrNull(actual)
		}
		var diff, pct *float64
		if plan != nil && actual != nil {
			diff = ptr(*actual - *plan)
			pct = percentOf(*actual-*plan, *plan)
		}
		t.Rows = append(t.Rows, []any{label, cell(plan), cell(actual), cell(diff), cell(pct)})
	}
	addRow("Öğrenci Sayısı", planned(perf.PlannedStudents, false, func(y *YearResult) float64 { return y.Students.Total }), perf.ActualStudents.OrNull(), false)
	addRow("Gelir", planned(perf.PlannedRevenue, true, func(y *YearResult) float64 { return y.Income.NetIncome }), perf.ActualRevenue.OrNull(), true)
	addRow("Gider", planned(perf.PlannedExpenses, true, func(y *YearResult) float64 { return y.Expenses.Total }), perf.ActualExpenses.OrNull(), true)

	if prevUsed && !prevConv.Valid() {
		sec.Warnings = append(sec.Warnings, PrevFXWarning)
	}
	sec.Tables = []Table{t}
	return sec
}
