package service

import (
	"math"

	"survey-stats/internal/state"
)

// BuildIndex returns the row-wise mean of items, skipping NaN. Rows with
// fewer than minItems present values (and always rows with none) are NaN.
// All items must have the same length.
func BuildIndex(items [][]float64, minItems int) []float64 {
	if len(items) == 0 {
		return nil
	}
	minItems = max(minItems, 1)

	out := make([]float64, len(items[0]))
	for i := range out {
		sum, count := 0.0, 0
		for _, item := range items {
			if v := item[i]; !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count < minItems {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// IndexFromColumns cleans cols and averages them into a composite index.
// With no columns every respondent is NaN.
func IndexFromColumns(df *state.DataFrame, cols []Column, minItems int) []float64 {
	if len(cols) == 0 {
		return nanSlice(df.NumRows())
	}
	items := make([][]float64, len(cols))
	for i, col := range cols {
		items[i] = CleanColumn(df, col)
	}
	return BuildIndex(items, minItems)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func headerNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Header
	}
	return names
}
