// Package kademe normalizes the school-level (kademe) configuration of a
// scenario: which grade bands a school operates and which grades each covers.
package kademe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Band keys, in canonical order.
const (
	OkulOncesi = "okulOncesi"
	Ilkokul    = "ilkokul"
	Ortaokul   = "ortaokul"
	Lise       = "lise"
)

// Bands lists the band keys in the order they are displayed.
var Bands = []string{OkulOncesi, Ilkokul, Ortaokul, Lise}

// Grades is the ordered list of every grade a school can run.
var Grades = []string{"KG", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}

var bandLabels = map[string]string{
	OkulOncesi: "Okul Öncesi",
	Ilkokul:    "İlkokul",
	Ortaokul:   "Ortaokul",
	Lise:       "Lise",
}

var defaultRanges = map[string]Range{
	OkulOncesi: {Enabled: true, From: "KG", To: "KG"},
	Ilkokul:    {Enabled: true, From: "1", To: "4"},
	Ortaokul:   {Enabled: true, From: "5", To: "8"},
	Lise:       {Enabled: true, From: "9", To: "12"},
}

// Range is the normalized grade span of one band. From is never after To.
type Range struct {
	Enabled bool   `json:"enabled"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Config is a normalized configuration. It always holds all four bands.
type Config map[string]Range

// RawBand is one band as it arrives from stored inputs; any field may be
// missing or of the wrong type.
type RawBand struct {
	Enabled any `json:"enabled"`
	From    any `json:"from"`
	To      any `json:"to"`
}

// RawConfig is the stored, unvalidated band configuration.
type RawConfig map[string]RawBand

// UnmarshalJSON never fails: anything that is not an object of objects is
// dropped, leaving Normalize to apply defaults.
func (rc *RawConfig) UnmarshalJSON(data []byte) error {
	out := RawConfig{}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err == nil {
		for key, msg := range entries {
			var band RawBand
			if err := json.Unmarshal(msg, &band); err == nil {
				out[key] = band
			}
		}
	}
	*rc = out
	return nil
}

// DefaultConfig returns the configuration used when nothing is stored.
func DefaultConfig() Config {
	cfg := make(Config, len(Bands))
	for _, band := range Bands {
		cfg[band] = defaultRanges[band]
	}
	return cfg
}

// Normalize turns a raw configuration into a Config. Missing bands and
// invalid grades fall back to the band defaults and reversed ranges are
// swapped.
func Normalize(raw RawConfig) Config {
	cfg := make(Config, len(Bands))
	for _, band := range Bands {
		def := defaultRanges[band]
		rb, ok := raw[band]
		if !ok {
			cfg[band] = def
			continue
		}

		r := Range{Enabled: parseEnabled(rb.Enabled, def.Enabled), From: def.From, To: def.To}
		if g, ok := NormalizeGrade(rb.From); ok {
			r.From = g
		}
		if g, ok := NormalizeGrade(rb.To); ok {
			r.To = g
		}
		if GradeIndex(r.From) > GradeIndex(r.To) {
			r.From, r.To = r.To, r.From
		}
		cfg[band] = r
	}
	return cfg
}

func parseEnabled(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// NormalizeGrade maps a loosely typed grade token to its canonical form.
func NormalizeGrade(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.ToUpper(strings.TrimSpace(t))
		switch s {
		case "KG", "K", "ANASINIFI", "0":
			return "KG", true
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 12 {
			return "", false
		}
		return strconv.Itoa(n), true
	case float64:
		if math.IsNaN(t) || t != math.Trunc(t) {
			return "", false
		}
		return NormalizeGrade(strconv.Itoa(int(t)))
	case int:
		return NormalizeGrade(strconv.Itoa(t))
	case json.Number:
		return NormalizeGrade(t.String())
	}
	return "", false
}

// GradeIndex returns the position of grade in Grades, or -1.
func GradeIndex(grade string) int {
	for i, g := range Grades {
		if g == grade {
			return i
		}
	}
	return -1
}

// Contains reports whether grade falls inside r. Disabled ranges contain nothing.
func (r Range) Contains(grade string) bool {
	if !r.Enabled {
		return false
	}
	idx := GradeIndex(grade)
	return idx >= 0 && idx >= GradeIndex(r.From) && idx <= GradeIndex(r.To)
}

// BandLabel returns the display name of a band key.
func BandLabel(band string) string {
	if label, ok := bandLabels[band]; ok {
		return label
	}
	return band
}

// FormatLabel decorates label with the grade span of r, e.g. "İlkokul (1-4)".
func FormatLabel(label string, r Range) string {
	if !r.Enabled || r.From == "" {
		return label
	}
	if r.From == r.To {
		return fmt.Sprintf("%s (%s)", label, r.From)
	}
	return fmt.Sprintf("%s (%s-%s)", label, r.From, r.To)
}

// Label is FormatLabel applied to the band's own display name.
func (c Config) Label(band string) string {
	return FormatLabel(BandLabel(band), c[band])
}

// EnabledBands returns the enabled band keys in canonical order.
func (c Config) EnabledBands() []string {
	var out []string
	for _, band := range Bands {
		if c[band].Enabled {
			out = append(out, band)
		}
	}
	return out
}

// BandOf returns the first enabled band whose range covers grade.
func (c Config) BandOf(grade string) (string, bool) {
	for _, band := range Bands {
		if c[band].Contains(grade) {
			return band, true
		}
	}
	return "", false
}

// VisibleGrades returns the grades covered by at least one enabled band, in
// canonical order. With no band enabled every grade is visible.
func (c Config) VisibleGrades() []string {
	var out []string
	for _, g := range Grades {
		if _, ok := c.BandOf(g); ok {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), Grades...)
	}
	return out
}

// Segment is a run of adjacent visible grades owned by the same band.
// Band is empty for grades no enabled band covers.
type Segment struct {
	Band   string
	Label  string
	Grades []string
}

// Segments partitions VisibleGrades into runs by owning band, so every
// visible grade appears in exactly one segment.
func (c Config) Segments() []Segment {
	var segments []Segment
	for _, g := range c.VisibleGrades() {
		band, _ := c.BandOf(g)
		if n := len(segments); n > 0 && segments[n-1].Band == band {
			segments[n-1].Grades = append(segments[n-1].Grades, g)
			continue
		}
		label := ""
		if band != "" {
			label = c.Label(band)
		}
		segments = append(segments, Segment{Band: band, Label: label, Grades: []string{g}})
	}
	return segments
}
