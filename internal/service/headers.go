package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Column is a resolved survey column. Columns are addressed by index so
// duplicate question texts stay distinct.
type Column struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
}

var (
	curlyQuotes = strings.NewReplacer("‘", `"`, "’", `"`, "“", `"`, "”", `"`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeHeader maps NBSP to space, curly quotes to '"', collapses runs
// of whitespace and trims.
func NormalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = curlyQuotes.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func lowerHeader(s string) string {
	return strings.ToLower(NormalizeHeader(s))
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, strings.ToLower(k)) {
			return false
		}
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// MatchColumn returns the first header containing every mustAll keyword
// and, when anyOf is non-empty, at least one anyOf keyword. If none does
// and anyOf is non-empty, the first header containing any anyOf keyword
// is returned instead.
func MatchColumn(headers, mustAll, anyOf []string) (Column, bool) {
	for i, h := range headers {
		lh := lowerHeader(h)
		if containsAll(lh, mustAll) && (len(anyOf) == 0 || containsAny(lh, anyOf)) {
			return Column{Index: i, Header: h}, true
		}
	}
	if len(anyOf) > 0 {
		for i, h := range headers {
			if containsAny(lowerHeader(h), anyOf) {
				return Column{Index: i, Header: h}, true
			}
		}
	}
	return Column{}, false
}

// PickColumns returns every header containing any keyword, in sheet
// order, skipping the excluded indices.
func PickColumns(headers, keywords []string, exclude ...int) []Column {
	skip := make(map[int]bool, len(exclude))
	for _, i := range exclude {
		skip[i] = true
	}

	cols := []Column{}
	for i, h := range headers {
		if skip[i] {
			continue
		}
		if containsAny(lowerHeader(h), keywords) {
			cols = append(cols, Column{Index: i, Header: h})
		}
	}
	return cols
}

// FindExact returns the first header equal to name after normalisation,
// ignoring case.
func FindExact(headers []string, name string) (Column, bool) {
	want := lowerHeader(name)
	for i, h := range headers {
		if lowerHeader(h) == want {
			return Column{Index: i, Header: h}, true
		}
	}
	return Column{}, false
}

// FindContaining returns the first header containing fragment, ignoring
// case.
func FindContaining(headers []string, fragment string) (Column, bool) {
	want := lowerHeader(fragment)
	for i, h := range headers {
		if strings.Contains(lowerHeader(h), want) {
			return Column{Index: i, Header: h}, true
		}
	}
	return Column{}, false
}

// MissingColumnError reports a required column that could not be
// resolved.
type MissingColumnError struct {
	Concept     string
	Suggestions []string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("could not find the %s column", e.Concept)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (closest headers: %s)", strings.Join(e.Suggestions, "; "))
	}
	return msg
}

// NewMissingColumnError builds the error with up to three headers closest
// to target.
func NewMissingColumnError(concept, target string, headers []string) *MissingColumnError {
	return &MissingColumnError{
		Concept:     concept,
		Suggestions: ClosestHeaders(target, headers, 3),
	}
}

// ClosestHeaders ranks headers by Levenshtein ratio against target.
// Headers scoring zero are dropped.
func ClosestHeaders(target string, headers []string, limit int) []string {
	type scored struct {
		header string
		score  float64
	}
	want := lowerHeader(target)
	ranked := make([]scored, 0, len(headers))
	for _, h := range headers {
		if score := LevenshteinRatio(want, lowerHeader(h)); score > 0 {
			ranked = append(ranked, scored{header: h, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.header
	}
	return out
}
