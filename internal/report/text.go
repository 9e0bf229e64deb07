package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"survey-stats/internal/models"
)

type printer struct {
	w       io.Writer
	err     error
	heading lipgloss.Style
	cell    lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		heading: r.NewStyle().Bold(true),
		cell:    r.NewStyle(),
	}
}

func (p *printer) linef(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) title(s string) {
	p.linef("\n%s", p.heading.Render(s))
}

// num formats like Python's float formatting: nan and inf spelled out.
func num(v models.Stat, prec int) string {
	f := v.Float()
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// WriteH1 renders the H1 battery as console text.
func WriteH1(w io.Writer, r *models.H1Report) error {
	p := newPrinter(w)

	if r.AgeFilter.Applied {
		p.linef("Rows before age filter: %d, after: %d", r.AgeFilter.RowsBefore, r.AgeFilter.RowsAfter)
	} else {
		p.linef("Warning: no Age column found. Proceeding without age filter.")
	}
	p.linef("Belief column: %s", r.BeliefColumn)
	p.linef("Belief variable non-missing: %d", r.BeliefNonMissing)

	for _, idx := range r.Indices {
		if len(idx.Items) == 0 {
			p.linef("No columns detected for %s.", idx.Name)
			continue
		}
		p.linef("%s items used (%d): %s", idx.Name, len(idx.Items), quoteList(idx.Items))
		p.linef("%s non-missing: %d", idx.Name, idx.NonMissing)
	}

	for _, c := range r.Correlations {
		sign := ">"
		if c.Direction == "-" {
			sign = "<"
		}
		p.title(fmt.Sprintf("%s - Spearman directional test (rho %s 0):", c.Label, sign))
		p.linef("  n=%d", c.N)
		if c.Skipped {
			p.linef("  %s", c.SkipReason)
			continue
		}
		p.linef("  rho=%s, one-sided p=%s", num(c.Rho, 3), num(c.POneSided, 4))
	}

	for _, g := range r.GroupComparisons {
		p.title(fmt.Sprintf("%s - Welch t test (%s internal > %s):", g.Label, g.Group1, g.Group0))
		p.linef("  n1(%s)=%d, n0(%s)=%d", g.Group1, g.N1, g.Group0, g.N0)
		if g.Skipped {
			p.linef("  %s", g.SkipReason)
			continue
		}
		p.linef("  means: %s vs %s", num(g.Mean1, 2), num(g.Mean0, 2))
		p.linef("  Welch t=%s, p=%s, d=%s", num(g.T, 2), num(g.PValue, 4), num(g.CohensD, 2))
	}
	return p.err
}

// WriteH2 renders the H2 battery as console text.
func WriteH2(w io.Writer, r *models.H2Report) error {
	p := newPrinter(w)

	ex := r.Exclusivity
	p.linef("%s items used (%d), at least %d per respondent; non-missing: %d", ex.Name, len(ex.Items), ex.MinItems, ex.NonMissing)
	p.linef("High-status item: %s", r.StatusColumn)

	one := r.OneSample
	p.title(fmt.Sprintf("%s: %s=%s (%s means more exclusive):", one.Hypothesis, one.Label, strconv.FormatFloat(one.PopMean, 'g', -1, 64), one.Alternative))
	if one.Skipped {
		p.linef("  n=%d", one.N)
		p.linef("  %s", one.SkipReason)
	} else {
		p.linef("  n=%d, mean=%s, sd=%s", one.N, num(one.Mean, 3), num(one.SD, 3))
		p.linef("  t=%s, p=%s", num(one.T, 3), num(one.PValue, 4))
	}

	g := r.GroupComparison
	p.title(g.Label)
	p.linef("  n0=%d, n1=%d, means: %s vs %s", g.N0, g.N1, num(g.Mean0, 2), num(g.Mean1, 2))
	if g.Skipped {
		p.linef("  %s", g.SkipReason)
	} else {
		p.linef("  Welch t=%s, p=%s, Cohen's d=%s", num(g.T, 3), num(g.PValue, 4), num(g.CohensD, 2))
	}

	c := r.Contingency
	p.title(c.Label)
	p.crossTab(c)
	if c.Skipped {
		p.linef("  %s", c.SkipReason)
	} else {
		p.linef("  Chi-square: chi2=%s, dof=%d, p=%s, phi=%s, min expected=%s",
			num(c.Chi2, 3), c.DOF, num(c.PValue, 4), num(c.Phi, 3), num(c.MinExpected, 2))
		if c.Fisher != nil {
			p.linef("  Fisher's exact (small counts): odds ratio=%s, p=%s", num(c.Fisher.OddsRatio, 3), num(c.Fisher.PValue, 4))
		}
	}

	if len(r.Warnings) > 0 {
		p.linef("")
		for _, warn := range r.Warnings {
			p.linef("Warning: %s", warn)
		}
	}
	return p.err
}

// crossTab prints the 2x2 table with the row variable down the side.
func (p *printer) crossTab(c models.ContingencyResult) {
	rows := [][]string{
		{c.RowVar + " \\ " + c.ColVar, "0", "1"},
		{"0", strconv.Itoa(c.Table[0][0]), strconv.Itoa(c.Table[0][1])},
		{"1", strconv.Itoa(c.Table[1][0]), strconv.Itoa(c.Table[1][1])},
	}

	p.table(rows)
}

// table prints rows as aligned columns, the first left-aligned and the
// rest right-aligned.
func (p *printer) table(rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			align := lipgloss.Right
			if i == 0 {
				align = lipgloss.Left
			}
			cells[i] = p.cell.Width(widths[i]).Align(align).Render(cell)
		}
		p.linef("%s", strings.Join(cells, "  "))
	}
}
