package finance

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberOrNull(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{name: "float", in: 12.5, want: ptr(12.5)},
		{name: "int", in: 7, want: ptr(7)},
		{name: "numeric string", in: " 42 ", want: ptr(42)},
		{name: "decimal comma", in: "2500,5", want: ptr(2500.5)},
		{name: "json number", in: json.Number("3.25"), want: ptr(3.25)},
		{name: "empty string", in: "", want: nil},
		{name: "text", in: "abc", want: nil},
		{name: "nil", in: nil, want: nil},
		{name: "bool", in: true, want: nil},
		{name: "nan", in: math.NaN(), want: nil},
		{name: "inf", in: math.Inf(1), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NumberOrNull(tt.in))
			want := 0.0
			if tt.want != nil {
				want = *tt.want
			}
			assert.Equal(t, want, NumberOrZero(tt.in))
		})
	}
}

func TestNumUnmarshalNeverFails(t *testing.T) {
	var doc struct {
		A Num `json:"a"`
		B Num `json:"b"`
		C Num `json:"c"`
		D Num `json:"d"`
		E Num `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 5, "b": "6.5", "c": null, "d": {"x": 1}, "e": [1]}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, N(5), doc.A)
	assert.Equal(t, N(6.5), doc.B)
	assert.False(t, doc.C.Valid)
	assert.False(t, doc.D.Valid)
	assert.False(t, doc.E.Valid)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 5, "b": 6.5, "c": null, "d": null, "e": null}`, string(out))
}

func TestConverter(t *testing.T) {
	fx := 30.0
	usdInput := CurrencyMeta{InputCurrency: "USD", FXUSDToLocal: &fx, LocalCurrencyCode: "try"}
	localInput := CurrencyMeta{InputCurrency: "LOCAL", FXUSDToLocal: &fx, LocalCurrencyCode: "TRY"}

	c := NewConverter(usdInput, "local")
	assert.Equal(t, 3000.0, c.Money(100))
	assert.Equal(t, "TRY", c.Code())
	assert.True(t, c.Valid())

	c = NewConverter(localInput, "usd")
	assert.Equal(t, 10.0, c.Money(300))
	assert.Equal(t, "USD", c.Code())

	c = NewConverter(localInput, "")
	assert.False(t, c.NeedsConversion())
	assert.Equal(t, 300.0, c.Money(300))

	for _, bad := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		bad := bad
		c = NewConverter(CurrencyMeta{InputCurrency: "LOCAL", FXUSDToLocal: &bad}, "USD")
		assert.False(t, c.Valid())
		assert.Equal(t, 300.0, c.Money(300), "unusable rate passes amounts through")
		assert.Nil(t, c.MoneyOrNull(ptr(300)))
	}

	c = NewConverter(CurrencyMeta{InputCurrency: "LOCAL"}, "USD").WithFX(ptr(4))
	assert.True(t, c.Valid())
	assert.Equal(t, 25.0, c.Money(100))

	assert.Equal(t, "LOCAL", NewConverter(CurrencyMeta{InputCurrency: "USD"}, "local").Code())
}

func TestParseInputsKeepsGoodSections(t *testing.T) {
	in, err := ParseInputs([]byte(`{
		"ik": "oops",
		"gelirler": {"unitFee": {"ilkokul": "2500,5"}},
		"kademeler": {"lise": {"enabled": false}}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ik")
	require.NotNil(t, in)
	assert.Equal(t, N(2500.5), in.Revenues.UnitFee["ilkokul"])
	assert.False(t, in.KademeConfig()["lise"].Enabled)

	in, err = ParseInputs([]byte(`[1, 2]`))
	require.Error(t, err)
	require.NotNil(t, in)
	assert.Empty(t, in.Grades)
}
