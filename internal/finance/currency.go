package finance

import (
	"math"
	"strings"
)

const (
	CurrencyUSD   = "USD"
	CurrencyLocal = "LOCAL"
)

// NormalizeCurrency maps "usd"/"local" in any case to the canonical constant,
// returning "" for anything else.
func NormalizeCurrency(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case CurrencyUSD:
		return CurrencyUSD
	case CurrencyLocal:
		return CurrencyLocal
	}
	return ""
}

// CurrencyMeta describes how a scenario's money inputs are denominated.
type CurrencyMeta struct {
	InputCurrency     string   `json:"inputCurrency"`
	FXUSDToLocal      *float64 `json:"fxUsdToLocal"`
	LocalCurrencyCode string   `json:"localCurrencyCode"`
}

func validFX(fx *float64) (float64, bool) {
	if fx == nil || math.IsNaN(*fx) || math.IsInf(*fx, 0) || *fx <= 0 {
		return 0, false
	}
	return *fx, true
}

// Converter converts input-currency amounts to the display currency.
type Converter struct {
	from      string
	to        string
	fx        float64
	fxOK      bool
	localCode string
}

// NewConverter builds a converter from meta's input currency to
// reportCurrency ("usd" or "local"; empty means no conversion).
func NewConverter(meta CurrencyMeta, reportCurrency string) Converter {
	from := NormalizeCurrency(meta.InputCurrency)
	if from == "" {
		from = CurrencyUSD
	}
	to := NormalizeCurrency(reportCurrency)
	if to == "" {
		to = from
	}
	fx, ok := validFX(meta.FXUSDToLocal)
	return Converter{
		from:      from,
		to:        to,
		fx:        fx,
		fxOK:      ok,
		localCode: strings.ToUpper(strings.TrimSpace(meta.LocalCurrencyCode)),
	}
}

// Identity returns a converter that leaves amounts in the input currency.
func Identity() Converter {
	return Converter{from: CurrencyUSD, to: CurrencyUSD}
}

// WithFX returns a copy using fx instead of the stored rate, when fx is usable.
func (c Converter) WithFX(fx *float64) Converter {
	if v, ok := validFX(fx); ok {
		c.fx, c.fxOK = v, true
	}
	return c
}

// NeedsConversion reports whether input and display currencies differ.
func (c Converter) NeedsConversion() bool {
	return c.from != c.to
}

// Valid reports whether amounts can be shown in the display currency.
func (c Converter) Valid() bool {
	return !c.NeedsConversion() || c.fxOK
}

// Display is the display currency, USD or LOCAL.
func (c Converter) Display() string {
	return c.to
}

// Code is the display currency code used in headers.
func (c Converter) Code() string {
	if c.to == CurrencyUSD {
		return CurrencyUSD
	}
	if c.localCode != "" {
		return c.localCode
	}
	return CurrencyLocal
}

// Money converts an aggregation amount. When the rate is unusable the amount
// passes through unconverted.
func (c Converter) Money(v float64) float64 {
	if !c.NeedsConversion() || !c.fxOK {
		return v
	}
	if c.to == CurrencyLocal {
		return v * c.fx
	}
	return v / c.fx
}

// MoneyPtr converts a display amount, keeping nil as nil.
func (c Converter) MoneyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(c.Money(*p))
}

// MoneyOrNull converts a display amount and yields nil when the amount is
// absent or the rate needed to convert it is missing.
func (c Converter) MoneyOrNull(p *float64) *float64 {
	if p == nil || !c.Valid() {
		return nil
	}
	return ptr(c.Money(*p))
}

// MoneyYears converts a three-year series.
func (c Converter) MoneyYears(v [3]float64) [3]float64 {
	for i := range v {
		v[i] = c.Money(v[i])
	}
	return v
}
