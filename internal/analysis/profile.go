package analysis

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"survey-stats/internal/service"
	"survey-stats/internal/state"
)

// ColumnProfile holds quality metrics for one survey column.
type ColumnProfile struct {
	Index           int     `json:"index"`
	ColumnName      string  `json:"column_name"`
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`       // bits
	NumericShare    float64 `json:"numeric_share"` // of non-null cells
}

// IndexColumns lists the items a composite index would average.
type IndexColumns struct {
	Name       string   `json:"name"`
	Hypothesis string   `json:"hypothesis"`
	Columns    []string `json:"columns"`
}

// Profile is the dataset overview printed by `survey profile`.
type Profile struct {
	Rows         int             `json:"rows"`
	Columns      []ColumnProfile `json:"columns"`
	BeliefColumn string          `json:"belief_column,omitempty"`
	Indices      []IndexColumns  `json:"indices"`
}

// Profiler computes column statistics and index membership.
type Profiler struct{}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Profile profiles every column and resolves the H1 index items.
func (p *Profiler) Profile(df *state.DataFrame) Profile {
	out := Profile{
		Rows:    df.NumRows(),
		Columns: p.ProfileColumns(df),
	}

	var exclude []int
	if belief, err := service.ResolveBelief(df.Headers); err == nil {
		out.BeliefColumn = belief.Header
		exclude = append(exclude, belief.Index)
	}
	for _, spec := range service.H1Indices {
		cols := service.PickColumns(df.Headers, spec.Keywords, exclude...)
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Header
		}
		out.Indices = append(out.Indices, IndexColumns{Name: spec.Name, Hypothesis: spec.Hypothesis, Columns: names})
	}

	excl := make([]string, 0, len(service.ExclusivityItems))
	for _, item := range service.ExclusivityItems {
		if col, ok := service.FindExact(df.Headers, item); ok {
			excl = append(excl, col.Header)
		}
	}
	out.Indices = append(out.Indices, IndexColumns{Name: "Exclusivity", Hypothesis: "H2/H2a", Columns: excl})
	return out
}

// ProfileColumns profiles all columns in a dataframe
func (p *Profiler) ProfileColumns(df *state.DataFrame) []ColumnProfile {
	profiles := make([]ColumnProfile, len(df.Headers))
	for i := range df.Headers {
		profiles[i] = p.ProfileColumn(df, i)
	}
	return profiles
}

// ProfileColumn analyzes quality metrics for a single column
func (p *Profiler) ProfileColumn(df *state.DataFrame, colIdx int) ColumnProfile {
	profile := ColumnProfile{
		Index:      colIdx,
		ColumnName: df.Headers[colIdx],
		TotalRows:  df.NumRows(),
	}

	counts := make(map[string]int)
	nonNull, numeric := 0, 0
	for _, value := range df.Column(colIdx) {
		value = strings.TrimSpace(value)
		if isNull(value) {
			continue
		}
		nonNull++
		counts[value]++
		if !math.IsNaN(service.CleanNumeric(value)) {
			numeric++
		}
	}

	profile.NonNullRows = nonNull
	profile.DistinctCount = len(counts)
	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-nonNull) / float64(profile.TotalRows)
	}
	if nonNull > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(nonNull)
		profile.NumericShare = float64(numeric) / float64(nonNull)
		profile.Entropy = entropyBits(counts, nonNull)
	}
	return profile
}

func isNull(value string) bool {
	switch value {
	case "", "null", "NULL", "None", "nan", "NaN":
		return true
	}
	return false
}

// entropyBits computes Shannon entropy of the value distribution.
func entropyBits(counts map[string]int, total int) float64 {
	probs := make([]float64, 0, len(counts))
	for _, c := range counts {
		probs = append(probs, float64(c)/float64(total))
	}
	return stat.Entropy(probs) / math.Ln2
}
