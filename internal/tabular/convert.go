package tabular

// convert.go infers typed scalars from delimited-text cells.
//
// Cells arrive as raw strings and leave as tagged values:
//   - Empty after cleaning -> missing
//   - Plain numerics, including scientific notation -> number
//   - Recognized date layouts (month-first, ISO, textual month) -> date
//   - Everything else -> text
//
// Inference is deliberately conservative: no currency stripping, no
// boolean coercion, no locale guessing. What does not parse cleanly
// stays text.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot controls how 2-digit years are read: a parsed year
// more than this many years in the future rolls back a century. With
// the default of 20, in 2026 "1/2/46" reads as 2046 but "1/2/47" as
// 1947.
var TwoDigitYearPivot = 20

var twoDigitYearLayouts = []string{
	"1/2/06",
	"01/02/06",
	"1-2-06",
	"1.2.06",
	"01.02.06",
}

var fourDigitYearLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"1.2.2006",
	"01.02.2006",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// ParseCell infers the scalar held by one raw cell.
func ParseCell(s string) Value {
	s = CleanCell(s)
	if s == "" {
		return Missing()
	}
	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	if t, ok := ParseDate(s); ok {
		return Date(t)
	}
	return Text(s)
}

// ParseDate reads a date in any supported layout. Four-digit years are
// tried first; 2-digit years apply the pivot rule.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	pivot := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > pivot {
			t = t.AddDate(-100, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

// CleanCell strips common spreadsheet-export artifacts from a cell:
// surrounding whitespace, the Excel text-formula wrapper (="value"), a
// bare leading "=", and stray quote wrapping.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 2 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}
