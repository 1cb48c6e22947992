package finance

import (
	"strings"

	"fizibilite/internal/kademe"
)

// HRLevel is an organizational level of the staffing plan.
type HRLevel struct {
	Key   string
	Label string
}

// HRRole is a staff role. Local (yerel) roles grow with inflation, the rest
// with the flat unit-cost ratio.
type HRRole struct {
	Key   string
	Label string
}

func (r HRRole) Local() bool {
	return strings.HasPrefix(r.Key, "yerel_")
}

var HRLevels = []HRLevel{
	{Key: "merkez", Label: "Merkez Yönetim"},
	{Key: "yonetim", Label: "Okul Yönetimi"},
	{Key: kademe.OkulOncesi},
	{Key: kademe.Ilkokul},
	{Key: kademe.Ortaokul},
	{Key: kademe.Lise},
	{Key: "idari", Label: "İdari Personel"},
	{Key: "destek", Label: "Destek Hizmetleri"},
}

var HRRoles = []HRRole{
	{Key: "turk_mudur", Label: "Türk Müdür"},
	{Key: "turk_mdyard", Label: "Türk Müdür Yardımcısı"},
	{Key: "turk_egitimci", Label: "Türk Eğitimci"},
	{Key: "turk_temsil", Label: "Temsilcilik Personeli"},
	{Key: "yerel_yonetici", Label: "Yerel Yönetici"},
	{Key: "yerel_egitimci", Label: "Yerel Eğitimci"},
	{Key: "yerel_destek", Label: "Yerel Destek Personeli"},
	{Key: "int_egitimci", Label: "Uluslararası Eğitimci"},
}

// SalaryBucket groups roles into one salary expense line.
type SalaryBucket struct {
	Key   string
	Label string
	Roles []string
}

var SalaryBuckets = []SalaryBucket{
	{Key: "turkPersonel", Label: "Yurt Dışı Türk Personel Maaşları", Roles: []string{"turk_mudur", "turk_mdyard", "turk_egitimci"}},
	{Key: "temsilcilik", Label: "Temsilcilik Personel Giderleri", Roles: []string{"turk_temsil"}},
	{Key: "yerelPersonel", Label: "Yerel Personel Maaşları", Roles: []string{"yerel_yonetici", "yerel_egitimci"}},
	{Key: "yerelDestek", Label: "Yerel Destek Personeli Maaşları", Roles: []string{"yerel_destek"}},
	{Key: "uluslararasi", Label: "Uluslararası Personel Maaşları", Roles: []string{"int_egitimci"}},
}

type HRRoleLine struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Local     bool       `json:"local"`
	UnitCost  [3]float64 `json:"unitCost"`
	Headcount [3]float64 `json:"headcount"`
	Annual    [3]float64 `json:"annual"`
}

type HRLevelBlock struct {
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Roles     []HRRoleLine `json:"roles"`
	Headcount [3]float64   `json:"headcount"`
	Annual    [3]float64   `json:"annual"`
}

type HRRoleSummary struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	Headcount  [3]float64  `json:"headcount"`
	Annual     [3]float64  `json:"annual"`
	AvgMonthly [3]*float64 `json:"avgMonthly"`
}

type HRBucketLine struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Amounts [3]float64 `json:"amounts"`
}

type HRModel struct {
	Currency       string          `json:"currency"`
	YearLabels     [3]string       `json:"yearLabels"`
	Levels         []HRLevelBlock  `json:"levels"`
	Roles          []HRRoleSummary `json:"roles"`
	Buckets        []HRBucketLine  `json:"buckets"`
	TotalHeadcount [3]float64      `json:"totalHeadcount"`
	TotalAnnual    [3]float64      `json:"totalAnnual"`
}

// ProjectUnitCost derives the Y2 and Y3 unit cost from Y1: local roles
// compound the yearly inflation rates, other roles compound the flat ratio.
func ProjectUnitCost(y1 float64, local bool, inflation YearValues, flatRatio float64) [3]float64 {
	costs := [3]float64{y1}
	for i := 1; i < 3; i++ {
		growth := flatRatio
		if local {
			growth = inflation.At(i).OrZero()
		}
		costs[i] = costs[i-1] * (1 + growth)
	}
	return costs
}

// BuildHR builds the three-year staffing cost model.
func BuildHR(b BuildInput) *HRModel {
	in := b.inputs()
	conv := b.converter()
	cfg := in.KademeConfig()
	ratio := in.HR.UnitCostRatio.OrZero()

	m := &HRModel{Currency: conv.Code(), YearLabels: b.yearLabels()}
	summaries := make(map[string]*HRRoleSummary, len(HRRoles))
	for _, role := range HRRoles {
		summaries[role.Key] = &HRRoleSummary{Key: role.Key, Label: role.Label}
	}

	for _, level := range HRLevels {
		block := HRLevelBlock{Key: level.Key, Label: level.Label}
		if block.Label == "" {
			block.Label = cfg.Label(level.Key)
		}

		for _, role := range HRRoles {
			unit := ProjectUnitCost(in.HR.UnitCosts[level.Key][role.Key].OrZero(), role.Local(), in.BasicInfo.Inflation, ratio)
			line := HRRoleLine{Key: role.Key, Label: role.Label, Local: role.Local()}
			hasData := false
			for i, yk := range YearKeys {
				hc := in.HR.Headcounts[yk][level.Key][role.Key].OrZero()
				line.Headcount[i] = hc
				line.UnitCost[i] = conv.Money(unit[i])
				line.Annual[i] = conv.Money(unit[i] * hc)
				if hc != 0 || unit[i] != 0 {
					hasData = true
				}
			}
			if !hasData {
				continue
			}

			s := summaries[role.Key]
			for i := range YearKeys {
				block.Headcount[i] += line.Headcount[i]
				block.Annual[i] += line.Annual[i]
				s.Headcount[i] += line.Headcount[i]
				s.Annual[i] += line.Annual[i]
			}
			block.Roles = append(block.Roles, line)
		}

		for i := range YearKeys {
			m.TotalHeadcount[i] += block.Headcount[i]
			m.TotalAnnual[i] += block.Annual[i]
		}
		m.Levels = append(m.Levels, block)
	}

	for _, role := range HRRoles {
		s := summaries[role.Key]
		for i := range YearKeys {
			s.AvgMonthly[i] = ratio12(s.Annual[i], s.Headcount[i])
		}
		m.Roles = append(m.Roles, *s)
	}

	for _, bucket := range SalaryBuckets {
		line := HRBucketLine{Key: bucket.Key, Label: bucket.Label}
		for _, roleKey := range bucket.Roles {
			for i := range YearKeys {
				line.Amounts[i] += summaries[roleKey].Annual[i]
			}
		}
		m.Buckets = append(m.Buckets, line)
	}
	return m
}

// ratio12 is the average monthly cost per head, nil without headcount.
func ratio12(annual, headcount float64) *float64 {
	if headcount == 0 {
		return nil
	}
	return ptr(annual / headcount / 12)
}

// BucketTotals returns the salary bucket amounts keyed by bucket key.
func (m *HRModel) BucketTotals(year int) map[string]float64 {
	out := make(map[string]float64, len(SalaryBuckets))
	if m == nil || year < 0 || year > 2 {
		return out
	}
	for _, b := range m.Buckets {
		out[b.Key] = b.Amounts[year]
	}
	return out
}
