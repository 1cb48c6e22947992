// Package xlsx writes array-of-arrays sheets into an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of a written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

// Sheet is one worksheet: a name and its rows of cells.
type Sheet struct {
	Name string
	Rows [][]any
}

// SheetName makes name usable as an Excel sheet name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	if name == "" {
		name = "Sayfa"
	}
	return name
}

// WriteWorkbook writes the sheets, in order, as one workbook to w. Nil cells
// are left empty.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	used := make(map[string]bool, len(sheets))
	first := -1
	for _, s := range sheets {
		name := uniqueName(SheetName(s.Name), used)
		index, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
		if first < 0 {
			first = index
		}
		if err := writeRows(f, name, s.Rows); err != nil {
			return err
		}
	}
	if !used[strings.ToLower(defaultSheet)] {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
		first, _ = f.GetSheetIndex(SheetName(sheets[0].Name))
	}
	f.SetActiveSheet(first)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// uniqueName suffixes name until it is unused. Excel compares sheet names
// case-insensitively.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len([]rune(suffix)) > maxSheetName {
			base = base[:maxSheetName-len([]rune(suffix))]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
