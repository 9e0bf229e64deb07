package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"survey-stats/internal/state"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CleanNumeric extracts a number from a free-text cell. A single comma
// with no dot is read as a decimal separator ("4,0" is 4); other commas
// are thousands separators. Everything except digits, '.' and '-' is then
// stripped. Empty or unparseable text is NaN.
func CleanNumeric(s string) float64 {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// CleanColumn applies CleanNumeric to every cell of col.
func CleanColumn(df *state.DataFrame, col Column) []float64 {
	values := make([]float64, df.NumRows())
	for i := range values {
		values[i] = CleanNumeric(df.Cell(i, col.Index))
	}
	return values
}

// CountPresent returns the number of non-NaN values.
func CountPresent(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
