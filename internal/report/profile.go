package report

import (
	"io"
	"strconv"

	"survey-stats/internal/analysis"
	"survey-stats/internal/models"
)

// WriteProfile renders the column profile and index membership.
func WriteProfile(w io.Writer, prof analysis.Profile) error {
	p := newPrinter(w)

	p.title("Column profile")
	p.linef("Rows: %d, columns: %d", prof.Rows, len(prof.Columns))
	rows := [][]string{{"column", "non-null", "null rate", "distinct", "numeric", "entropy"}}
	for _, c := range prof.Columns {
		rows = append(rows, []string{
			truncate(c.ColumnName, 60),
			strconv.Itoa(c.NonNullRows),
			num(models.Stat(c.NullRate), 2),
			strconv.Itoa(c.DistinctCount),
			num(models.Stat(c.NumericShare), 2),
			num(models.Stat(c.Entropy), 3),
		})
	}
	p.table(rows)

	p.title("Composite indices")
	if prof.BeliefColumn != "" {
		p.linef("Belief column: %s", prof.BeliefColumn)
	} else {
		p.linef("Belief column: not found")
	}
	for _, idx := range prof.Indices {
		p.linef("%s (%s) items (%d): %s", idx.Name, idx.Hypothesis, len(idx.Columns), quoteList(idx.Columns))
	}
	return p.err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
