package finance

import (
	"fizibilite/internal/kademe"
)

// Report line kinds. Subtotal lines sum the item lines since the previous
// subtotal or running line; running lines sum every item line of the
// section so far. Value and ratio lines are shown as given.
const (
	LineItem     = "item"
	LineSubtotal = "subtotal"
	LineRunning  = "running"
	LineValue    = "value"
	LineRatio    = "ratio"
)

// ReportLine is one named row of the detailed report.
type ReportLine struct {
	Kind   string      `json:"kind"`
	Label  string      `json:"label"`
	Detail any         `json:"detail"`
	Values [3]*float64 `json:"values"`
	Share  *float64    `json:"share"`
}

// ReportHeader names the columns of a section.
type ReportHeader struct {
	Label  string    `json:"label"`
	Detail string    `json:"detail"`
	Values [3]string `json:"values"`
	Share  string    `json:"share"`
}

type ReportSection struct {
	Key      string       `json:"key"`
	Title    string       `json:"title"`
	Header   ReportHeader `json:"header"`
	Lines    []ReportLine `json:"lines"`
	Warnings []string     `json:"warnings,omitempty"`
}

// PrevFXWarning is shown when the previous scenario's amounts cannot be
// converted to the report currency.
const PrevFXWarning = "Kur bilgisi eksik: önceki yılın tutarları rapor para birimine çevrilemedi."

type ReportModel struct {
	Title        string          `json:"title"`
	SchoolName   string          `json:"schoolName"`
	AcademicYear string          `json:"academicYear"`
	Currency     string          `json:"currency"`
	Program      string          `json:"program"`
	YearLabels   [3]string       `json:"yearLabels"`
	Sections     []ReportSection `json:"sections"`
}

// Section returns the section with key, or nil.
func (m *ReportModel) Section(key string) *ReportSection {
	if m == nil {
		return nil
	}
	for i := range m.Sections {
		if m.Sections[i].Key == key {
			return &m.Sections[i]
		}
	}
	return nil
}

// Report section keys, in layout order.
const (
	ReportTuition     = "tuition"
	ReportCapacity    = "capacity"
	ReportHR          = "hr"
	ReportRevenues    = "revenues"
	ReportExpenses    = "expenses"
	ReportDiscounts   = "discounts"
	ReportCompetitors = "competitors"
	ReportPerformance = "performance"
)

func years3(f func(y *YearResult) float64, r *Results, conv *Converter) [3]*float64 {
	var out [3]*float64
	for i := range out {
		y := r.Year(i)
		if y == nil {
			continue
		}
		v := f(y)
		if conv != nil {
			v = conv.Money(v)
		}
		out[i] = ptr(v)
	}
	return out
}

func ratios3(f func(y *YearResult) *float64, r *Results, scale float64) [3]*float64 {
	var out [3]*float64
	for i := range out {
		if y := r.Year(i); y != nil {
			out[i] = scalePtr(f(y), scale)
		}
	}
	return out
}

// BuildReport assembles the detailed report from the inputs and the stored
// results, comparing against the previous scenario's results when present.
func BuildReport(b BuildInput) *ReportModel {
	in := b.inputs()
	conv := b.converter()
	cfg := in.KademeConfig()
	years := b.yearLabels()
	report := b.Report
	if report == nil {
		report = ComputeResults(in, b.CurrencyMeta.InputCurrency)
	}

	schoolName := in.BasicInfo.SchoolName
	if schoolName == "" {
		schoolName = b.Scenario.SchoolName
	}
	m := &ReportModel{
		Title:        "Fizibilite Raporu",
		SchoolName:   schoolName,
		AcademicYear: b.Scenario.AcademicYear,
		Currency:     conv.Code(),
		Program:      ProgramLabel(b.Scenario.ProgramType),
		YearLabels:   years,
	}

	m.Sections = append(m.Sections,
		tuitionReport(cfg, report, conv, years),
		capacityReport(b, years),
		hrReport(report, conv, years),
		revenueReport(in, report, conv, years),
		expenseReport(in, report, conv, years),
		discountReport(report, conv, years),
		competitorReport(in, cfg, conv),
		performanceReport(report, b.PrevReport, conv, b.prevConverter(conv)),
	)
	return m
}

func tuitionReport(cfg kademe.Config, r *Results, conv Converter, years [3]string) ReportSection {
	sec := ReportSection{
		Key:    ReportTuition,
		Title:  "Öğrenim Ücretleri (" + conv.Code() + ")",
		Header: ReportHeader{Label: "Kademe", Detail: "Öğrenci (1. Yıl)", Values: years, Share: "Brüt Pay (%)"},
	}
	for _, band := range cfg.EnabledBands() {
		line := ReportLine{Kind: LineItem, Label: cfg.Label(band), Detail: r.Y1.Income.Tuition[band].Students}
		line.Values = years3(func(y *YearResult) float64 { return y.Income.Tuition[band].Fee }, r, &conv)
		line.Share = percentOf(r.Y1.Income.Tuition[band].Gross, r.Y1.Income.GrossTuition)
		sec.Lines = append(sec.Lines, line)
	}
	avg := ReportLine{Kind: LineValue, Label: "Ortalama Ücret", Detail: r.Y1.Students.Total}
	for i := range avg.Values {
		y := r.Year(i)
		if p := ratio(y.Income.GrossTuition, y.Students.Total); p != nil {
			avg.Values[i] = ptr(conv.Money(*p))
		}
	}
	sec.Lines = append(sec.Lines, avg)
	return sec
}

func capacityReport(b BuildInput, years [3]string) ReportSection {
	capacity := BuildCapacity(b)
	sec := ReportSection{
		Key:    ReportCapacity,
		Title:  "Kapasite ve Öğrenci Sayıları",
		Header: ReportHeader{Label: "Kademe", Detail: "Kapasite (1. Yıl)", Values: years, Share: "Doluluk (%)"},
	}
	add := func(kind string, r CapacityRow) {
		sec.Lines = append(sec.Lines, ReportLine{
			Kind:   kind,
			Label:  r.Label,
			Detail: cell(r.Capacity[1]),
			Values: [3]*float64{r.Students[1], r.Students[2], r.Students[3]},
			Share:  r.Utilization[1],
		})
	}
	for _, r := range capacity.Rows {
		add(LineItem, r)
	}
	add(LineSubtotal, capacity.Total)
	sec.Lines = append(sec.Lines, ReportLine{
		Kind:   LineRatio,
		Label:  capacity.Rate.Label,
		Values: capacity.Rate.Values,
	})
	return sec
}

func hrReport(r *Results, conv Converter, years [3]string) ReportSection {
	sec := ReportSection{
		Key:    ReportHR,
		Title:  "Personel Giderleri (" + conv.Code() + ")",
		Header: ReportHeader{Label: "Kalem", Values: years, Share: "Pay (%)"},
	}
	for _, bucket := range SalaryBuckets {
		key := bucket.Key
		line := ReportLine{Kind: LineItem, Label: bucket.Label}
		line.Values = years3(func(y *YearResult) float64 { return y.Expenses.SalaryBuckets[key] }, r, &conv)
		line.Share = percentOf(r.Y1.Expenses.SalaryBuckets[key], r.Y1.Expenses.Salaries)
		sec.Lines = append(sec.Lines, line)
	}
	sec.Lines = append(sec.Lines,
		ReportLine{Kind: LineSubtotal, Label: "Toplam Personel Gideri", Values: years3(func(y *YearResult) float64 { return y.Expenses.Salaries }, r, &conv)},
		ReportLine{Kind: LineRatio, Label: "Öğrenci Başına Personel Gideri", Values: ratios3(func(y *YearResult) *float64 {
			return conv.MoneyPtr(ratio(y.Expenses.Salaries, y.Students.Total))
		}, r, 1)},
	)
	return sec
}

func revenueReport(in *Inputs, r *Results, conv Converter, years [3]string) ReportSection {
	sec := ReportSection{
		Key:    ReportRevenues,
		Title:  "Gelirler (" + conv.Code() + ")",
		Header: ReportHeader{Label: "Kalem", Values: years, Share: "Net Gelir Payı (%)"},
	}
	netIncome := r.Y1.Income.NetIncome
	item := func(label string, f func(y *YearResult) float64) {
		line := ReportLine{Kind: LineItem, Label: label, Values: years3(f, r, &conv)}
		line.Share = percentOf(f(&r.Y1), netIncome)
		sec.Lines = append(sec.Lines, line)
	}
	running := func(label string, f func(y *YearResult) float64) {
		sec.Lines = append(sec.Lines, ReportLine{Kind: LineRunning, Label: label, Values: years3(f, r, &conv), Share: percentOf(f(&r.Y1), netIncome)})
	}

	item("Brüt Öğrenim Ücreti Geliri", func(y *YearResult) float64 { return y.Income.GrossTuition })
	item("Burs ve İndirimler", func(y *YearResult) float64 { return -y.Income.Discounts })
	running("Net Öğrenim Geliri", func(y *YearResult) float64 { return y.Income.NetTuition })
	for _, l := range in.Revenues.Activity {
		key := lineKey(l)
		item(l.Label, func(y *YearResult) float64 { return y.Income.ActivityLines[key] })
	}
	running("Net Ciro", func(y *YearResult) float64 { return y.Income.NetTurnover })
	for _, l := range in.Revenues.NonActivity {
		key := lineKey(l)
		item(l.Label, func(y *YearResult) float64 { return y.Income.NonActivityLines[key] })
	}
	running("Net Gelir", func(y *YearResult) float64 { return y.Income.NetIncome })
	sec.Lines = append(sec.Lines, ReportLine{Kind: LineRatio, Label: "İndirim Oranı (%)", Values: ratios3(func(y *YearResult) *float64 {
		return ratio(y.Income.Discounts, y.Income.GrossTuition)
	}, r, 100)})
	return sec
}

func expenseReport(in *Inputs, r *Results, conv Converter, years [3]string) ReportSection {
	sec := ReportSection{
		Key:    ReportExpenses,
		Title:  "Giderler (" + conv.Code() + ")",
		Header: ReportHeader{Label: "Kalem", Values: years, Share: "Gider Payı (%)"},
	}
	total := r.Y1.Expenses.Total
	item := func(label string, f func(y *YearResult) float64) {
		sec.Lines = append(sec.Lines, ReportLine{Kind: LineItem, Label: label, Values: years3(f, r, &conv), Share: percentOf(f(&r.Y1), total)})
	}

	for _, bucket := range SalaryBuckets {
		key := bucket.Key
		item(bucket.Label, func(y *YearResult) float64 { return y.Expenses.SalaryBuckets[key] })
	}
	sec.Lines = append(sec.Lines, ReportLine{Kind: LineSubtotal, Label: "Personel Giderleri Toplamı",
		Values: years3(func(y *YearResult) float64 { return y.Expenses.Salaries }, r, &conv),
		Share:  percentOf(r.Y1.Expenses.Salaries, total)})

	for _, l := range in.Expenses.Operating {
		key := lineKey(l)
		item(l.Label, func(y *YearResult) float64 { return y.Expenses.OperatingLines[key] })
	}
	sec.Lines = append(sec.Lines,
		ReportLine{Kind: LineSubtotal, Label: "İşletme Giderleri Toplamı",
			Values: years3(func(y *YearResult) float64 { return y.Expenses.Operating }, r, &conv),
			Share:  percentOf(r.Y1.Expenses.Operating, total)},
		ReportLine{Kind: LineRunning, Label: "Toplam Gider",
			Values: years3(func(y *YearResult) float64 { return y.Expenses.Total }, r, &conv)},
		ReportLine{Kind: LineRatio, Label: "Personel Gideri / Toplam Gider (%)", Values: ratios3(func(y *YearResult) *float64 {
			return ratio(y.Expenses.Salaries, y.Expenses.Total)
		}, r, 100)},
		ReportLine{Kind: LineRatio, Label: "Toplam Gider / Net Gelir (%)", Values: ratios3(func(y *YearResult) *float64 {
			return ratio(y.Expenses.Total, y.Income.NetIncome)
		}, r, 100)},
		ReportLine{Kind: LineValue, Label: "Net Sonuç",
			Values: years3(func(y *YearResult) float64 { return y.Result.NetResult }, r, &conv)},
		ReportLine{Kind: LineRatio, Label: "Kâr Marjı (%)", Values: ratios3(func(y *YearResult) *float64 {
			return y.KPI.ProfitMargin
		}, r, 100)},
	)
	return sec
}

// WeightedDiscountRate is the student-weighted average discount rate of a year.
func WeightedDiscountRate(lines []DiscountLine) *float64 {
	var weighted, students float64
	for _, l := range lines {
		weighted += l.Rate * l.Students
		students += l.Students
	}
	return ratio(weighted, students)
}

func discountReport(r *Results, conv Converter, years [3]string) ReportSection {
	sec := ReportSection{
		Key:    ReportDiscounts,
		Title:  "Burs ve İndirim Analizi (" + conv.Code() + ")",
		Header: ReportHeader{Label: "Burs / İndirim", Detail: "Tür", Values: years, Share: "Oran (%)"},
	}
	for idx, d := range r.Y1.Income.DiscountLines {
		i := idx
		line := ReportLine{Kind: LineItem, Label: d.Name, Detail: textOrNil(discountKindLabel(d.Kind)), Share: ptr(d.Rate * 100)}
		line.Values = years3(func(y *YearResult) float64 {
			if i < len(y.Income.DiscountLines) {
				return y.Income.DiscountLines[i].Amount
			}
			return 0
		}, r, &conv)
		sec.Lines = append(sec.Lines, line)
	}
	sec.Lines = append(sec.Lines,
		ReportLine{Kind: LineSubtotal, Label: "Toplam Burs ve İndirim",
			Values: years3(func(y *YearResult) float64 { return y.Income.Discounts }, r, &conv)},
		ReportLine{Kind: LineRatio, Label: "Ağırlıklı Ortalama Oran (%)", Values: ratios3(func(y *YearResult) *float64 {
			return WeightedDiscountRate(y.Income.DiscountLines)
		}, r, 100)},
		ReportLine{Kind: LineRatio, Label: "İndirim / Brüt Ücret (%)", Values: ratios3(func(y *YearResult) *float64 {
			return ratio(y.Income.Discounts, y.Income.GrossTuition)
		}, r, 100)},
	)
	return sec
}

// competitorReport lays the four band fees across the detail and the three
// value columns; disabled bands stay empty.
func competitorReport(in *Inputs, cfg kademe.Config, conv Converter) ReportSection {
	bandCell := func(fees map[string]Num, band string) *float64 {
		if !cfg[band].Enabled {
			return nil
		}
		return conv.MoneyPtr(fees[band].OrNull())
	}
	sec := ReportSection{
		Key:   ReportCompetitors,
		Title: "Rakip Okul Ücretleri (" + conv.Code() + ")",
		Header: ReportHeader{
			Label:  "Okul",
			Detail: cfg.Label(kademe.OkulOncesi),
			Values: [3]string{cfg.Label(kademe.Ilkokul), cfg.Label(kademe.Ortaokul), cfg.Label(kademe.Lise)},
		},
	}

	own := make(map[string]Num, len(kademe.Bands))
	for _, band := range kademe.Bands {
		if fee, ok := in.Revenues.UnitFee[band]; ok {
			own[band] = fee
		}
	}
	rows := append([]Competitor{{Name: "Okulumuz", Fees: own}}, in.BasicInfo.Competitors...)
	for _, c := range rows {
		sec.Lines = append(sec.Lines, ReportLine{
			Kind:   LineValue,
			Label:  c.Name,
			Detail: cell(bandCell(c.Fees, kademe.OkulOncesi)),
			Values: [3]*float64{bandCell(c.Fees, kademe.Ilkokul), bandCell(c.Fees, kademe.Ortaokul), bandCell(c.Fees, kademe.Lise)},
		})
	}
	return sec
}

// performanceReport compares this scenario's first year with the previous
// scenario's first year. prevConv brings the previous amounts into the
// currency of this report.
func performanceReport(r, prev *Results, conv, prevConv Converter) ReportSection {
	sec := ReportSection{
		Key:   ReportPerformance,
		Title: "Yıllık Performans Karşılaştırması",
		Header: ReportHeader{
			Label:  "Gösterge",
			Detail: "Önceki Yıl",
			Values: [3]string{"Bu Yıl", "Değişim", "Değişim (%)"},
		},
	}
	prevY := prev.Year(0)
	if prevY != nil && !prevConv.Valid() {
		sec.Warnings = append(sec.Warnings, PrevFXWarning)
	}
	metric := func(label string, money bool, f func(y *YearResult) *float64) {
		cur := f(&r.Y1)
		var before *float64
		if prevY != nil {
			before = f(prevY)
		}
		if money {
			cur, before = conv.MoneyPtr(cur), prevConv.MoneyOrNull(before)
		}
		line := ReportLine{Kind: LineValue, Label: label, Detail: cell(before)}
		line.Values[0] = cur
		if cur != nil && before != nil {
			line.Values[1] = ptr(*cur - *before)
			line.Values[2] = percentOf(*cur-*before, *before)
		}
		sec.Lines = append(sec.Lines, line)
	}
	metric("Öğrenci Sayısı", false, func(y *YearResult) *float64 { return ptr(y.Students.Total) })
	metric("Net Gelir", true, func(y *YearResult) *float64 { return ptr(y.Income.NetIncome) })
	metric("Toplam Gider", true, func(y *YearResult) *float64 { return ptr(y.Expenses.Total) })
	metric("Net Sonuç", true, func(y *YearResult) *float64 { return ptr(y.Result.NetResult) })
	metric("Kâr Marjı (%)", false, func(y *YearResult) *float64 { return scalePtr(y.KPI.ProfitMargin, 100) })
	return sec
}
