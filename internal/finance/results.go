package finance

import "fizibilite/internal/kademe"

type TuitionLine struct {
	Students float64 `json:"students"`
	Fee      float64 `json:"fee"`
	Gross    float64 `json:"gross"`
}

type DiscountLine struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Rate     float64 `json:"rate"`
	Students float64 `json:"students"`
	Amount   float64 `json:"amount"`
}

type StudentsResult struct {
	Total       float64            `json:"total"`
	Capacity    float64            `json:"capacity"`
	Utilization *float64           `json:"utilization"`
	ByKademe    map[string]float64 `json:"byKademe"`
}

type IncomeResult struct {
	Tuition           map[string]TuitionLine `json:"tuition"`
	GrossTuition      float64                `json:"grossTuition"`
	Discounts         float64                `json:"discounts"`
	DiscountLines     []DiscountLine         `json:"discountLines"`
	NetTuition        float64                `json:"netTuition"`
	ActivityIncome    float64                `json:"activityIncome"`
	ActivityLines     map[string]float64     `json:"activityLines"`
	NetTurnover       float64                `json:"netTurnover"`
	NonActivityIncome float64                `json:"nonActivityIncome"`
	NonActivityLines  map[string]float64     `json:"nonActivityLines"`
	NetIncome         float64                `json:"netIncome"`
}

type ExpenseResult struct {
	Salaries       float64            `json:"salaries"`
	SalaryBuckets  map[string]float64 `json:"salaryBuckets"`
	Operating      float64            `json:"operating"`
	OperatingLines map[string]float64 `json:"operatingLines"`
	Total          float64            `json:"total"`
}

type ResultBlock struct {
	NetResult float64 `json:"netResult"`
}

type KPIResult struct {
	ProfitMargin      *float64 `json:"profitMargin"`
	CostPerStudent    *float64 `json:"costPerStudent"`
	RevenuePerStudent *float64 `json:"revenuePerStudent"`
}

type YearResult struct {
	Students StudentsResult `json:"students"`
	Income   IncomeResult   `json:"income"`
	Expenses ExpenseResult  `json:"expenses"`
	Result   ResultBlock    `json:"result"`
	KPI      KPIResult      `json:"kpi"`
}

// Results is the computed projection stored per scenario. Amounts are in
// the scenario's input currency.
type Results struct {
	Currency string     `json:"currency"`
	Y1       YearResult `json:"y1"`
	Y2       YearResult `json:"y2"`
	Y3       YearResult `json:"y3"`
}

// Year returns the result of year index i (0-based), or nil.
func (r *Results) Year(i int) *YearResult {
	if r == nil {
		return nil
	}
	switch i {
	case 0:
		return &r.Y1
	case 1:
		return &r.Y2
	case 2:
		return &r.Y3
	}
	return nil
}

// lineKey picks the key a money line is stored under.
func lineKey(l AmountLine) string {
	if l.Key != "" {
		return l.Key
	}
	return l.Label
}

// ComputeResults derives the three-year projection from the inputs.
func ComputeResults(in *Inputs, inputCurrency string) *Results {
	if in == nil {
		in = &Inputs{}
	}
	currency := NormalizeCurrency(inputCurrency)
	if currency == "" {
		currency = CurrencyUSD
	}
	cfg := in.KademeConfig()
	hr := BuildHR(BuildInput{Inputs: in})

	res := &Results{Currency: currency}
	for i, yk := range YearKeys {
		y := res.Year(i)
		students := bandStudents(cfg, in.GradesFor(yk))

		y.Students.ByKademe = make(map[string]float64, len(kademe.Bands))
		y.Income.Tuition = make(map[string]TuitionLine, len(kademe.Bands))
		for _, band := range cfg.EnabledBands() {
			n := students[band]
			fee := projectedFees(in, band)[i]
			y.Students.ByKademe[band] = n
			y.Students.Total += n
			y.Students.Capacity += in.Capacity.ByKademe[band].At(i + 1).OrZero()
			y.Income.Tuition[band] = TuitionLine{Students: n, Fee: fee, Gross: n * fee}
			y.Income.GrossTuition += n * fee
		}
		y.Students.Utilization = ratio(y.Students.Total, y.Students.Capacity)

		avgFee := 0.0
		if y.Students.Total > 0 {
			avgFee = y.Income.GrossTuition / y.Students.Total
		}
		for _, d := range in.Discounts {
			line := DiscountLine{
				Name:     d.Name,
				Kind:     d.Kind,
				Rate:     d.Rate.OrZero(),
				Students: d.Students.At(i).OrZero(),
			}
			line.Amount = line.Rate * avgFee * line.Students
			y.Income.DiscountLines = append(y.Income.DiscountLines, line)
			y.Income.Discounts += line.Amount
		}
		y.Income.NetTuition = y.Income.GrossTuition - y.Income.Discounts

		y.Income.ActivityLines = make(map[string]float64, len(in.Revenues.Activity))
		for _, l := range in.Revenues.Activity {
			v := l.Amounts.At(i).OrZero()
			y.Income.ActivityLines[lineKey(l)] += v
			y.Income.ActivityIncome += v
		}
		y.Income.NetTurnover = y.Income.NetTuition + y.Income.ActivityIncome

		y.Income.NonActivityLines = make(map[string]float64, len(in.Revenues.NonActivity))
		for _, l := range in.Revenues.NonActivity {
			v := l.Amounts.At(i).OrZero()
			y.Income.NonActivityLines[lineKey(l)] += v
			y.Income.NonActivityIncome += v
		}
		y.Income.NetIncome = y.Income.NetTurnover + y.Income.NonActivityIncome

		y.Expenses.SalaryBuckets = hr.BucketTotals(i)
		y.Expenses.Salaries = hr.TotalAnnual[i]
		y.Expenses.OperatingLines = make(map[string]float64, len(in.Expenses.Operating))
		for _, l := range in.Expenses.Operating {
			v := l.Amounts.At(i).OrZero()
			y.Expenses.OperatingLines[lineKey(l)] += v
			y.Expenses.Operating += v
		}
		y.Expenses.Total = y.Expenses.Salaries + y.Expenses.Operating

		y.Result.NetResult = y.Income.NetIncome - y.Expenses.Total
		y.KPI.ProfitMargin = ratio(y.Result.NetResult, y.Income.NetIncome)
		y.KPI.CostPerStudent = ratio(y.Expenses.Total, y.Students.Total)
		y.KPI.RevenuePerStudent = ratio(y.Income.NetIncome, y.Students.Total)
	}
	return res
}
