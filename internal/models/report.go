package models

import (
	"encoding/json"
	"math"
	"time"
)

// Stat is a float64 that encodes NaN and ±Inf as JSON null.
type Stat float64

// MarshalJSON implements json.Marshaler.
func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

// Float returns the underlying value.
func (s Stat) Float() float64 {
	return float64(s)
}

// IndexSummary describes one composite index.
type IndexSummary struct {
	Name       string   `json:"name"`
	Items      []string `json:"items"`
	MinItems   int      `json:"min_items"`
	NonMissing int      `json:"non_missing"`
}

// CorrelationResult is a directional Spearman test.
type CorrelationResult struct {
	Hypothesis string `json:"hypothesis"`
	Label      string `json:"label"`
	Direction  string `json:"direction"`
	N          int    `json:"n"`
	Rho        Stat   `json:"rho"`
	POneSided  Stat   `json:"p_one_sided"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// GroupComparison is a Welch two-sample t-test with Cohen's d.
type GroupComparison struct {
	Hypothesis  string `json:"hypothesis"`
	Label       string `json:"label"`
	Alternative string `json:"alternative"`
	Group1      string `json:"group1"`
	Group0      string `json:"group0"`
	N1          int    `json:"n1"`
	N0          int    `json:"n0"`
	Mean1       Stat   `json:"mean1"`
	Mean0       Stat   `json:"mean0"`
	T           Stat   `json:"t"`
	DF          Stat   `json:"df"`
	PValue      Stat   `json:"p"`
	CohensD     Stat   `json:"cohens_d"`
	Skipped     bool   `json:"skipped"`
	SkipReason  string `json:"skip_reason,omitempty"`
}

// OneSampleResult is a one-sample t-test against a reference mean.
type OneSampleResult struct {
	Hypothesis  string  `json:"hypothesis"`
	Label       string  `json:"label"`
	Alternative string  `json:"alternative"`
	PopMean     float64 `json:"pop_mean"`
	N           int     `json:"n"`
	Mean        Stat    `json:"mean"`
	SD          Stat    `json:"sd"`
	T           Stat    `json:"t"`
	DF          Stat    `json:"df"`
	PValue      Stat    `json:"p"`
	Skipped     bool    `json:"skipped"`
	SkipReason  string  `json:"skip_reason,omitempty"`
}

// FisherResult is Fisher's exact test on the contingency table.
type FisherResult struct {
	OddsRatio Stat `json:"odds_ratio"`
	PValue    Stat `json:"p"`
}

// ContingencyResult is a chi-square test on a 2x2 table, with Fisher's
// exact test attached when expected counts are small.
type ContingencyResult struct {
	Hypothesis  string        `json:"hypothesis"`
	Label       string        `json:"label"`
	RowVar      string        `json:"row_var"`
	ColVar      string        `json:"col_var"`
	Table       [2][2]int     `json:"table"`
	Chi2        Stat          `json:"chi2"`
	DOF         int           `json:"dof"`
	PValue      Stat          `json:"p"`
	Phi         Stat          `json:"phi"`
	MinExpected Stat          `json:"min_expected"`
	Fisher      *FisherResult `json:"fisher,omitempty"`
	Skipped     bool          `json:"skipped"`
	SkipReason  string        `json:"skip_reason,omitempty"`
}

// AgeFilter records how the respondent age filter was applied.
type AgeFilter struct {
	Applied    bool     `json:"applied"`
	Column     string   `json:"column,omitempty"`
	Groups     []string `json:"groups,omitempty"`
	RowsBefore int      `json:"rows_before"`
	RowsAfter  int      `json:"rows_after"`
}

// H1Report is the outcome of the payment-security belief battery.
type H1Report struct {
	ID               string              `json:"id"`
	Dataset          string              `json:"dataset"`
	GeneratedAt      time.Time           `json:"generated_at"`
	AgeFilter        AgeFilter           `json:"age_filter"`
	BeliefColumn     string              `json:"belief_column"`
	BeliefNonMissing int                 `json:"belief_non_missing"`
	Indices          []IndexSummary      `json:"indices"`
	Correlations     []CorrelationResult `json:"correlations"`
	GroupComparisons []GroupComparison   `json:"group_comparisons"`
	Warnings         []string            `json:"warnings,omitempty"`
}

// H2Report is the outcome of the exclusivity / financial-stability battery.
type H2Report struct {
	ID              string            `json:"id"`
	Dataset         string            `json:"dataset"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Exclusivity     IndexSummary      `json:"exclusivity"`
	OneSample       OneSampleResult   `json:"one_sample"`
	StatusColumn    string            `json:"status_column"`
	FinancialColumn string            `json:"financial_column"`
	GroupComparison GroupComparison   `json:"group_comparison"`
	Contingency     ContingencyResult `json:"contingency"`
	Warnings        []string          `json:"warnings,omitempty"`
}
