// Package finance holds the scenario input schema, the results calculator
// and the model builders that shape a scenario for display and export.
package finance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NumberOrZero coerces v to a finite number, returning 0 when it cannot.
// Use it for values that feed sums.
func NumberOrZero(v any) float64 {
	if p := NumberOrNull(v); p != nil {
		return *p
	}
	return 0
}

// NumberOrNull coerces v to a finite number, returning nil when it cannot.
// Use it for values shown as-is, where "no data" must differ from zero.
func NumberOrNull(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case Num:
		return t.OrNull()
	case *float64:
		if t == nil {
			return nil
		}
		f = *t
	case string:
		parsed, ok := parseNumericString(t)
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseNumericString(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Num is a numeric input field. It accepts numbers, numeric strings and
// null; anything else decodes as "no value" instead of failing.
type Num struct {
	Value float64
	Valid bool
}

// N returns a valid Num.
func N(v float64) Num {
	return Num{Value: v, Valid: true}
}

func (n *Num) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*n = Num{}
		return nil
	}
	if p := NumberOrNull(raw); p != nil {
		*n = N(*p)
		return nil
	}
	*n = Num{}
	return nil
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// OrZero returns the value, or 0 when absent.
func (n Num) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// OrNull returns a pointer to the value, or nil when absent.
func (n Num) OrNull() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func ptr(v float64) *float64 {
	return &v
}

// ratio returns a/b, or nil when b is zero.
func ratio(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	return ptr(a / b)
}

// percentOf returns a/b*100, or nil when b is zero.
func percentOf(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	return ptr(a / b * 100)
}

func scalePtr(p *float64, k float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p * k)
}

func sumPtrs(values ...*float64) *float64 {
	var total float64
	seen := false
	for _, v := range values {
		if v != nil {
			total += *v
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &total
}
