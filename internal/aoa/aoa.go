// Package aoa flattens finance models into array-of-arrays sheets: one
// inner slice per spreadsheet row, each cell a string, a float64 or nil.
//
// Totals are recomputed from the emitted rows rather than copied from the
// model, so a stale stored total never reaches a sheet.
package aoa

import "fmt"

// EmptyModelText marks a sheet whose model was missing.
const EmptyModelText = "Model boş"

// Placeholder is the sheet emitted for a nil model.
func Placeholder(title string) [][]any {
	return [][]any{{fmt.Sprintf("%s: %s", title, EmptyModelText)}}
}

// BlankRows returns n empty rows of the given width.
func BlankRows(n, width int) [][]any {
	if n <= 0 {
		return nil
	}
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = make([]any, width)
	}
	return rows
}

// PadTo appends blank rows until rows has target entries, so the next row
// lands on absolute index target. Rows already past target are left alone.
func PadTo(rows [][]any, target, width int) [][]any {
	return append(rows, BlankRows(target-len(rows), width)...)
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// sum adds the non-nil values, returning nil when all are nil.
func sum(values ...*float64) *float64 {
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

func div(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	v := a / b
	return &v
}

func currencyTitle(title, currency string) string {
	if currency == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, currency)
}
