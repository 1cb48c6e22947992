package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fullYearPattern  = regexp.MustCompile(`^(\d{4})\s*([-/])\s*(\d{4})$`)
	shortYearPattern = regexp.MustCompile(`^(\d{4})\s*([-/])\s*(\d{2})$`)
	bareYearPattern  = regexp.MustCompile(`^(\d{4})$`)
)

// academicYear is a parsed academic-year string that remembers the format it
// was written in, so shifted values can be rendered the same way.
type academicYear struct {
	start int
	end   int
	sep   string
	short bool
	bare  bool
}

func parseAcademicYear(s string) (academicYear, bool) {
	s = strings.TrimSpace(s)
	if m := fullYearPattern.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[3])
		return academicYear{start: start, end: end, sep: m[2]}, true
	}
	if m := shortYearPattern.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[3])
		return academicYear{start: start, end: end, sep: m[2], short: true}, true
	}
	if m := bareYearPattern.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return academicYear{start: start, end: start + 1, sep: "-", bare: true}, true
	}
	return academicYear{}, false
}

func (a academicYear) shift(n int) academicYear {
	a.start += n
	if a.short {
		a.end = ((a.end+n)%100 + 100) % 100
	} else {
		a.end += n
	}
	return a
}

func (a academicYear) String() string {
	if a.bare {
		return strconv.Itoa(a.start)
	}
	if a.short {
		return fmt.Sprintf("%d%s%02d", a.start, a.sep, a.end)
	}
	return fmt.Sprintf("%d%s%d", a.start, a.sep, a.end)
}

// ComputePrevAcademicYear returns the academic year preceding s.
// Accepted forms are "YYYY-YYYY", "YYYY/YYYY", "YYYY-YY" and a bare "YYYY";
// the first three keep their format, a bare year Y yields "(Y-1)-Y".
// The second return value is false when s is in none of those forms.
func ComputePrevAcademicYear(s string) (string, bool) {
	ay, ok := parseAcademicYear(s)
	if !ok {
		return "", false
	}
	if ay.bare {
		return fmt.Sprintf("%d-%d", ay.start-1, ay.start), true
	}
	return ay.shift(-1).String(), true
}

// ShiftAcademicYear moves s forward (or backward for negative n) by n years,
// keeping its written format.
func ShiftAcademicYear(s string, n int) (string, bool) {
	ay, ok := parseAcademicYear(s)
	if !ok {
		return "", false
	}
	return ay.shift(n).String(), true
}

// AcademicStartYear extracts the starting calendar year of s.
func AcademicStartYear(s string) (int, bool) {
	ay, ok := parseAcademicYear(s)
	if !ok {
		return 0, false
	}
	return ay.start, true
}

// ProjectionYearLabels builds the column labels for the three projection
// years of a scenario that starts in academicYear.
func ProjectionYearLabels(academicYear string) [3]string {
	var labels [3]string
	for i := range labels {
		label := fmt.Sprintf("%d. Yıl", i+1)
		if shifted, ok := ShiftAcademicYear(academicYear, i); ok {
			label = fmt.Sprintf("%s (%s)", label, shifted)
		}
		labels[i] = label
	}
	return labels
}
