package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"survey-stats/internal/analysis"
	"survey-stats/internal/models"
)

// Format selects how reports are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Write renders an *models.H1Report, *models.H2Report or analysis.Profile
// in the given format.
func Write(w io.Writer, format Format, report interface{}) error {
	if format == FormatJSON {
		return WriteJSON(w, report)
	}
	switch r := report.(type) {
	case *models.H1Report:
		return WriteH1(w, r)
	case *models.H2Report:
		return WriteH2(w, r)
	case analysis.Profile:
		return WriteProfile(w, r)
	default:
		return fmt.Errorf("cannot render %T as text", report)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
