package aoa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fizibilite/internal/finance"
	"fizibilite/internal/kademe"
)

func fixtureInput() finance.BuildInput {
	fx := 32.5
	in := &finance.Inputs{
		BasicInfo: finance.BasicInfo{
			SchoolName:  "Kahire Okulu",
			Inflation:   finance.YearValues{Y2: finance.N(0.3), Y3: finance.N(0.25)},
			FeeIncrease: finance.YearValues{Y2: finance.N(0.1), Y3: finance.N(0.1)},
			Competitors: []finance.Competitor{{Name: "Rakip", Fees: map[string]finance.Num{kademe.Lise: finance.N(5000)}}},
			Performance: finance.Performance{PlannedRevenue: finance.N(100), ActualRevenue: finance.N(120)},
		},
		Capacity: finance.CapacityInputs{ByKademe: map[string]finance.PeriodValues{
			kademe.Ilkokul: {Cur: finance.N(100), Y1: finance.N(100), Y2: finance.N(120), Y3: finance.N(120)},
			kademe.Lise:    {Y1: finance.N(60)},
		}},
		Grades: []finance.GradeRow{{Grade: "1", Branches: finance.N(2), Students: finance.N(40)}},
		GradesYears: map[string][]finance.GradeRow{
			"y1": {
				{Grade: "KG", Branches: finance.N(2), Students: finance.N(30)},
				{Grade: "1", Branches: finance.N(3), Students: finance.N(60)},
				{Grade: "9", Branches: finance.N(1), Students: finance.N(25)},
			},
			"y2": {{Grade: "1", Branches: finance.N(3), Students: finance.N(66)}},
		},
		Norm: finance.NormInputs{CurriculumWeeklyHours: map[string]map[string]finance.Num{
			"Sınıf Öğretmeni||Matematik": {"1": finance.N(5)},
			"Fizik Öğretmeni||Fizik":     {"9": finance.N(4)},
		}},
		HR: finance.HRInputs{
			UnitCostRatio: finance.N(0.05),
			UnitCosts: map[string]map[string]finance.Num{
				"ilkokul": {"yerel_egitimci": finance.N(6000), "turk_egitimci": finance.N(20000)},
				"merkez":  {"turk_mudur": finance.N(30000)},
			},
			Headcounts: map[string]map[string]map[string]finance.Num{
				"y1": {"ilkokul": {"yerel_egitimci": finance.N(4), "turk_egitimci": finance.N(1)}, "merkez": {"turk_mudur": finance.N(1)}},
				"y2": {"ilkokul": {"yerel_egitimci": finance.N(5), "turk_egitimci": finance.N(1)}},
			},
		},
		Revenues: finance.RevenueInputs{
			UnitFee: map[string]finance.Num{kademe.OkulOncesi: finance.N(3000), kademe.Ilkokul: finance.N(4000), kademe.Lise: finance.N(6000)},
			Activity: []finance.AmountLine{
				{Key: "yemek", Label: "Yemek", Amounts: finance.YearValues{Y1: finance.N(9000), Y2: finance.N(9900)}},
				{Key: "servis", Label: "Servis", Amounts: finance.YearValues{Y1: finance.N(4000)}},
			},
			NonActivity: []finance.AmountLine{{Key: "bagis", Label: "Bağış", Amounts: finance.YearValues{Y1: finance.N(1000)}}},
		},
		Expenses: finance.ExpenseInputs{Operating: []finance.AmountLine{
			{Key: "kira", Label: "Kira", Amounts: finance.YearValues{Y1: finance.N(40000), Y2: finance.N(42000), Y3: finance.N(44000)}},
			{Key: "enerji", Label: "Enerji", Amounts: finance.YearValues{Y1: finance.N(8000)}},
		}},
		Discounts: []finance.DiscountInput{
			{Name: "Başarı Bursu", Kind: finance.DiscountScholarship, Rate: finance.N(0.5), Students: finance.YearValues{Y1: finance.N(4)}},
			{Name: "Kardeş", Kind: finance.DiscountReduction, Rate: finance.N(0.1), Students: finance.YearValues{Y1: finance.N(12)}},
		},
	}
	return finance.BuildInput{
		Scenario:       finance.ScenarioInfo{SchoolName: "Kahire Okulu", AcademicYear: "2025-2026", ProgramType: finance.ProgramLocal},
		Inputs:         in,
		Report:         finance.ComputeResults(in, finance.CurrencyUSD),
		CurrencyMeta:   finance.CurrencyMeta{InputCurrency: finance.CurrencyUSD, FXUSDToLocal: &fx, LocalCurrencyCode: "EGP"},
		ReportCurrency: "usd",
	}
}

func allSheets(b finance.BuildInput) map[string][][]any {
	return map[string][][]any{
		"hr":         BuildHR(finance.BuildHR(b)),
		"capacity":   BuildCapacity(finance.BuildCapacity(b)),
		"norm":       BuildNorm(finance.BuildNorm(b)),
		"basic":      BuildBasicInfo(finance.BuildBasicInfo(b)),
		"statements": BuildStatements(finance.BuildStatements(b)),
		"report":     BuildReport(finance.BuildReport(b)),
	}
}

func TestNilModelsYieldPlaceholder(t *testing.T) {
	sheets := map[string]func() [][]any{
		"hr":         func() [][]any { return BuildHR(nil) },
		"capacity":   func() [][]any { return BuildCapacity(nil) },
		"norm":       func() [][]any { return BuildNorm(nil) },
		"basic":      func() [][]any { return BuildBasicInfo(nil) },
		"statements": func() [][]any { return BuildStatements(nil) },
		"report":     func() [][]any { return BuildReport(nil) },
	}
	for name, build := range sheets {
		t.Run(name, func(t *testing.T) {
			var rows [][]any
			require.NotPanics(t, func() { rows = build() })
			require.Len(t, rows, 1)
			assert.Contains(t, rows[0][0], EmptyModelText)
			assert.Equal(t, rows, build())
		})
	}
}

func TestCellsAreStringNumberOrNil(t *testing.T) {
	for name, rows := range allSheets(fixtureInput()) {
		for r, row := range rows {
			for c, v := range row {
				switch v.(type) {
				case nil, string, float64:
				default:
					t.Errorf("%s[%d][%d] has %T", name, r, c, v)
				}
			}
		}
	}
}

func TestBuildersOnEmptyInputs(t *testing.T) {
	for name, rows := range allSheets(finance.BuildInput{}) {
		assert.NotEmpty(t, rows, name)
	}
}

func TestPadTo(t *testing.T) {
	rows := [][]any{{"a"}, {"b"}}
	padded := PadTo(rows, 5, 3)
	require.Len(t, padded, 5)
	assert.Equal(t, []any{nil, nil, nil}, padded[4])

	assert.Len(t, PadTo(padded, 2, 3), 5, "already past the target")
	assert.Empty(t, BlankRows(-1, 3))
}

func findRow(rows [][]any, label string) []any {
	for _, r := range rows {
		if len(r) > 0 && r[0] == label {
			return r
		}
	}
	return nil
}

func TestBuildHRRecomputesTotals(t *testing.T) {
	m := finance.BuildHR(fixtureInput())
	m.TotalAnnual = [3]float64{1, 1, 1}
	m.Buckets[0].Amounts[0] = 1_000_000
	rows := BuildHR(m)

	assert.Equal(t, "İnsan Kaynakları Planı (USD)", rows[0][0])
	grand := findRow(rows, "Genel Toplam")
	require.NotNil(t, grand)
	assert.Equal(t, 6.0, grand[2])
	assert.InDelta(t, 4*6000+20000+30000, grand[3], 1e-9)

	var bucketTotal []any
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i][0] == "Toplam" {
			bucketTotal = rows[i]
			break
		}
	}
	require.NotNil(t, bucketTotal)
	assert.InDelta(t, 1_000_000+4*6000, bucketTotal[1], 1e-9)
}

func TestBuildCapacityRecomputesTotals(t *testing.T) {
	m := finance.BuildCapacity(fixtureInput())
	m.Total = finance.CapacityRow{Label: "Toplam"}
	rows := BuildCapacity(m)

	total := findRow(rows, "Toplam")
	require.NotNil(t, total)
	// Y1 block: capacity, students, utilization at columns 4..6.
	assert.Equal(t, 160.0, total[4])
	assert.Equal(t, 115.0, total[5])

	delta := findRow(rows, m.Delta.Label)
	require.NotNil(t, delta)
	assert.Equal(t, 75.0, delta[1])
	assert.Equal(t, -49.0, delta[2])
	assert.Nil(t, delta[3])
}

func TestBuildNorm(t *testing.T) {
	rows := BuildNorm(finance.BuildNorm(fixtureInput()))
	assert.True(t, strings.HasPrefix(rows[0][0].(string), "Norm Kadro - 1. Yıl"))

	math := findRow(rows, "Sınıf Öğretmeni")
	require.NotNil(t, math)
	assert.Equal(t, "Matematik", math[1])
	assert.Equal(t, 15.0, math[len(math)-1])

	need := findRow(rows, "Gerekli Öğretmen (Branş Bazında)")
	require.NotNil(t, need)
	assert.Equal(t, 2.0, need[1])
}

func TestBuildBasicInfoShowsWarnings(t *testing.T) {
	b := fixtureInput()
	b.CurrencyMeta.FXUSDToLocal = nil
	b.ReportCurrency = "local"
	rows := BuildBasicInfo(finance.BuildBasicInfo(b))
	assert.NotNil(t, findRow(rows, WarningPrefix+finance.MissingFXWarning))
	assert.NotNil(t, findRow(rows, "Kademe Yapısı"))
}

func TestBuildStatements(t *testing.T) {
	rows := BuildStatements(finance.BuildStatements(fixtureInput()))
	require.Len(t, rows, 8)
	assert.Equal(t, []any{"Kalem", "1. Yıl (2025-2026)", "2. Yıl (2026-2027)", "3. Yıl (2027-2028)"}, rows[2])
	assert.Equal(t, "Kâr Marjı (%)", rows[7][0])
}

func TestBuildReportLayout(t *testing.T) {
	m := finance.BuildReport(fixtureInput())
	rows := BuildReport(m)

	for i, row := range rows {
		require.Len(t, row, ReportWidth, "row %d", i)
	}
	for _, sec := range m.Sections {
		start, ok := ReportSectionRows[sec.Key]
		require.True(t, ok, sec.Key)
		require.Greater(t, len(rows), start)
		assert.Equal(t, sec.Title, rows[start][ReportColumns["label"]], sec.Key)
		assert.Equal(t, sec.Header.Values[0], rows[start+1][ReportColumns["y1"]], sec.Key)
	}
	assert.Equal(t, "Kahire Okulu", rows[1][ReportColumns["label"]])
	assert.Equal(t, "2025-2026", rows[1][ReportColumns["detail"]])
}

func TestBuildReportRecomputesSubtotals(t *testing.T) {
	m := finance.BuildReport(fixtureInput())
	expenses := m.Section(finance.ReportExpenses)
	require.NotNil(t, expenses)

	var wantOperating float64
	for i := range expenses.Lines {
		l := &expenses.Lines[i]
		if l.Label == "Kira" || l.Label == "Enerji" {
			wantOperating += *l.Values[0]
		}
		if l.Kind == finance.LineSubtotal || l.Kind == finance.LineRunning {
			stale := 1.0
			l.Values[0] = &stale
		}
	}
	rows := BuildReport(m)

	col := ReportColumns["y1"]
	operating := findRow(rows, "İşletme Giderleri Toplamı")
	require.NotNil(t, operating)
	assert.InDelta(t, wantOperating, operating[col], 1e-9)
	assert.InDelta(t, 48000, operating[col], 1e-9)

	total := findRow(rows, "Toplam Gider")
	require.NotNil(t, total)
	salaries := findRow(rows, "Personel Giderleri Toplamı")
	require.NotNil(t, salaries)
	assert.InDelta(t, salaries[col].(float64)+48000, total[col], 1e-9)
}

func TestBuildReportShowsSectionWarnings(t *testing.T) {
	m := finance.BuildReport(fixtureInput())
	perf := m.Section(finance.ReportPerformance)
	require.NotNil(t, perf)
	perf.Warnings = []string{finance.PrevFXWarning}

	rows := BuildReport(m)
	last := rows[len(rows)-1]
	assert.Equal(t, finance.PrevFXWarning, last[ReportColumns["label"]])
	assert.Len(t, last, ReportWidth)
}
