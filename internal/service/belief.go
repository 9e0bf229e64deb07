package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"survey-stats/internal/state"
)

var (
	firstNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	wordNo      = regexp.MustCompile(`\bno\b`)
)

// beliefPhrases is ordered longest first so "strongly agree" never
// resolves as "agree".
var beliefPhrases = []struct {
	phrase string
	value  float64
}{
	{"strongly disagree", 1},
	{"strongly agree", 5},
	{"disagree", 2},
	{"neutral", 3},
	{"agree", 4},
	{"nein", 2},
	{"yes", 4},
	{"ja", 4},
}

// ParseBelief maps a Likert answer to 1..5. The first number in the text
// wins; otherwise agreement phrases (English and German yes/no) are
// matched. Unrecognised text is NaN.
func ParseBelief(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " ")))
	if s == "" {
		return math.NaN()
	}

	if m := firstNumber.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}

	for _, p := range beliefPhrases {
		if strings.Contains(s, p.phrase) {
			return p.value
		}
	}
	if wordNo.MatchString(s) {
		return 2
	}
	return math.NaN()
}

// BeliefColumn applies ParseBelief to every cell of col.
func BeliefColumn(df *state.DataFrame, col Column) []float64 {
	values := make([]float64, df.NumRows())
	for i := range values {
		values[i] = ParseBelief(df.Cell(i, col.Index))
	}
	return values
}
