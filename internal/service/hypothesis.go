package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"survey-stats/internal/config"
	"survey-stats/internal/models"
	"survey-stats/internal/state"
	"survey-stats/internal/stats"
)

// IndexSpec describes a composite index built from keyword-matched items.
type IndexSpec struct {
	Name       string
	Hypothesis string
	Label      string
	Keywords   []string
}

// H1Indices are the outcome indices correlated with the security belief.
var H1Indices = []IndexSpec{
	{Name: "Trust", Hypothesis: "H1", Label: "trust ~ belief internal>external", Keywords: []string{"trust", "reliable", "reliab"}},
	{Name: "Quality", Hypothesis: "H1a", Label: "quality ~ belief internal>external", Keywords: []string{"quality"}},
	{Name: "Service", Hypothesis: "H1b", Label: "service ~ belief internal>external", Keywords: []string{"customer service", "service quality", "support"}},
}

// Belief item: "payment ... internal ... more secure than external BNPL / AmazonPay".
var (
	BeliefMustAll = []string{"payment", "internal", "secure"}
	BeliefAnyOf   = []string{"external bnpl", "amazonpay", "store", "brand"}
)

// H2 item texts.
const (
	ExclNoBNPL        = "Not offering BNPL makes me think the brand is targeting customers who value exclusivity and personal service."
	ExclLuxuryWithout = "I would expect luxury products (e.g., Lamborghini, high-end Rolex, mansion) to be sold without BNPL options."
	ExclLuxuryLess    = "Offering BNPL for luxury products would make them feel less exclusive."
	FinancialStable   = "Financial_Stability"
	HighStatus        = "high status"
	AgeHeader         = "Age"
)

// ExclusivityItems are averaged into the exclusivity index.
var ExclusivityItems = []string{ExclNoBNPL, ExclLuxuryWithout, ExclLuxuryLess}

const (
	msgTooFewPairs  = "Too few paired cases for a stable correlation."
	msgSmallGroups  = "Not enough per group; skipping."
	msgTooFewExcl   = "Too few exclusivity scores; skipping."
	msgNotTwoByTwo  = "Contingency table is not 2x2; skipping chi-square."
	msgFinNotBinary = "Financial stability has values other than 0 and 1; skipping chi-square."
)

// HypothesisService runs the H1 and H2 batteries over a loaded survey.
type HypothesisService struct {
	logger *zap.Logger
	cfg    config.AnalysisConfig
	now    func() time.Time
}

// NewHypothesisService creates a service with the given thresholds.
func NewHypothesisService(logger *zap.Logger, cfg config.AnalysisConfig) *HypothesisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HypothesisService{logger: logger, cfg: cfg, now: time.Now}
}

// ResolveBelief finds the security-belief column.
func ResolveBelief(headers []string) (Column, error) {
	col, ok := MatchColumn(headers, BeliefMustAll, BeliefAnyOf)
	if !ok {
		target := strings.Join(append(append([]string{}, BeliefMustAll...), BeliefAnyOf...), " ")
		return Column{}, NewMissingColumnError("belief item about internal vs external security", target, headers)
	}
	return col, nil
}

// RunH1 tests whether believing internal payment is more secure than
// external BNPL goes with higher trust, quality and service ratings.
func (s *HypothesisService) RunH1(df *state.DataFrame) (*models.H1Report, error) {
	report := &models.H1Report{
		ID:          uuid.NewString(),
		Dataset:     datasetName(df),
		GeneratedAt: s.now().UTC(),
	}

	df, report.AgeFilter = s.filterAge(df)
	if !report.AgeFilter.Applied {
		report.Warnings = append(report.Warnings, "No Age column found. Proceeding without age filter.")
	}

	beliefCol, err := ResolveBelief(df.Headers)
	if err != nil {
		return nil, fmt.Errorf("h1: %w", err)
	}
	belief := BeliefColumn(df, beliefCol)
	report.BeliefColumn = beliefCol.Header
	report.BeliefNonMissing = CountPresent(belief)

	s.logger.Debug("resolved belief column",
		zap.String("column", beliefCol.Header),
		zap.Int("non_missing", report.BeliefNonMissing))

	groups := PartitionAgreement(belief, s.cfg.AgreeThreshold, s.cfg.DisagreeThreshold)

	for _, spec := range H1Indices {
		cols := PickColumns(df.Headers, spec.Keywords, beliefCol.Index)
		idx := IndexFromColumns(df, cols, 1)

		summary := models.IndexSummary{
			Name:       spec.Name,
			Items:      headerNames(cols),
			MinItems:   1,
			NonMissing: CountPresent(idx),
		}
		report.Indices = append(report.Indices, summary)
		if len(cols) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("No columns detected for %s.", spec.Name))
		}

		label := fmt.Sprintf("%s (%s)", spec.Hypothesis, spec.Label)
		report.Correlations = append(report.Correlations, s.correlate(spec.Hypothesis, label, belief, idx))
		report.GroupComparisons = append(report.GroupComparisons,
			s.compareGroups(spec.Hypothesis, spec.Hypothesis, idx, groups, "agree", "disagree", stats.Greater))
	}

	s.logger.Info("h1 battery complete",
		zap.String("id", report.ID),
		zap.Int("rows", df.NumRows()),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// RunH2 tests the exclusivity index against the neutral midpoint and
// whether financially stable respondents differ in believing BNPL
// attracts high-status shoppers.
func (s *HypothesisService) RunH2(df *state.DataFrame) (*models.H2Report, error) {
	report := &models.H2Report{
		ID:          uuid.NewString(),
		Dataset:     datasetName(df),
		GeneratedAt: s.now().UTC(),
	}

	exclCols := make([]Column, 0, len(ExclusivityItems))
	for _, item := range ExclusivityItems {
		col, ok := FindExact(df.Headers, item)
		if !ok {
			return nil, fmt.Errorf("h2: %w", NewMissingColumnError(fmt.Sprintf("exclusivity item %q", item), item, df.Headers))
		}
		exclCols = append(exclCols, col)
	}
	statusCol, ok := FindContaining(df.Headers, HighStatus)
	if !ok {
		return nil, fmt.Errorf("h2: %w", NewMissingColumnError("column mentioning 'high status'", HighStatus, df.Headers))
	}
	finCol, ok := FindExact(df.Headers, FinancialStable)
	if !ok {
		return nil, fmt.Errorf("h2: %w", NewMissingColumnError(FinancialStable, FinancialStable, df.Headers))
	}
	report.StatusColumn = statusCol.Header
	report.FinancialColumn = finCol.Header

	minItems := s.cfg.MinExclusivityItems
	excl := IndexFromColumns(df, exclCols, minItems)
	report.Exclusivity = models.IndexSummary{
		Name:       "Exclusivity",
		Items:      headerNames(exclCols),
		MinItems:   minItems,
		NonMissing: CountPresent(excl),
	}
	report.OneSample = s.oneSample("H2/H2a", "One-sample t-test on exclusivity index vs neutral", excl)

	fin := CleanColumn(df, finCol)
	status := CleanColumn(df, statusCol)
	finGroups := BinaryGroups(fin)

	report.GroupComparison = s.compareGroups("H2b",
		"H2b (Welch test): Do financially stable shoppers differ in belief BNPL attracts high-status shoppers?",
		status, finGroups, "financially stable", "not financially stable", stats.TwoSided)

	report.Contingency = s.contingency(fin, finGroups, status, finCol.Header)
	if report.Contingency.SkipReason == msgFinNotBinary {
		report.Warnings = append(report.Warnings, msgFinNotBinary)
	}

	s.logger.Info("h2 battery complete",
		zap.String("id", report.ID),
		zap.Int("rows", df.NumRows()),
		zap.Int("exclusivity_n", report.OneSample.N))
	return report, nil
}

func (s *HypothesisService) filterAge(df *state.DataFrame) (*state.DataFrame, models.AgeFilter) {
	filter := models.AgeFilter{RowsBefore: df.NumRows(), RowsAfter: df.NumRows()}
	col, ok := FindExact(df.Headers, AgeHeader)
	if !ok {
		s.logger.Warn("no age column; age filter skipped")
		return df, filter
	}

	allowed := make(map[string]bool, len(s.cfg.AgeGroups))
	for _, g := range s.cfg.AgeGroups {
		allowed[strings.TrimSpace(g)] = true
	}
	filtered := df.Filter(func(row []string) bool {
		return col.Index < len(row) && allowed[strings.TrimSpace(row[col.Index])]
	})

	filter.Applied = true
	filter.Column = col.Header
	filter.Groups = append([]string(nil), s.cfg.AgeGroups...)
	filter.RowsAfter = filtered.NumRows()
	s.logger.Debug("age filter applied",
		zap.Int("before", filter.RowsBefore),
		zap.Int("after", filter.RowsAfter))
	return filtered, filter
}

func (s *HypothesisService) correlate(hypothesis, label string, x, y []float64) models.CorrelationResult {
	res := stats.Spearman(x, y)
	out := models.CorrelationResult{
		Hypothesis: hypothesis,
		Label:      label,
		Direction:  stats.Positive.String(),
		N:          res.N,
		Rho:        models.Stat(math.NaN()),
		POneSided:  models.Stat(math.NaN()),
	}
	if res.N < s.cfg.MinPairs {
		out.Skipped = true
		out.SkipReason = msgTooFewPairs
		return out
	}
	out.Rho = models.Stat(res.Rho)
	out.POneSided = models.Stat(stats.OneSidedP(res.Rho, res.PValue, stats.Positive))
	return out
}

func (s *HypothesisService) compareGroups(hypothesis, label string, y []float64, groups []int, name1, name0 string, alt stats.Alternative) models.GroupComparison {
	g1 := SelectGroup(y, groups, Group1)
	g0 := SelectGroup(y, groups, Group0)
	_, mean1, _ := stats.Describe(g1)
	_, mean0, _ := stats.Describe(g0)

	out := models.GroupComparison{
		Hypothesis:  hypothesis,
		Label:       label,
		Alternative: alt.String(),
		Group1:      name1,
		Group0:      name0,
		N1:          len(g1),
		N0:          len(g0),
		Mean1:       models.Stat(mean1),
		Mean0:       models.Stat(mean0),
		T:           models.Stat(math.NaN()),
		DF:          models.Stat(math.NaN()),
		PValue:      models.Stat(math.NaN()),
		CohensD:     models.Stat(math.NaN()),
	}
	if len(g1) < s.cfg.MinGroupSize || len(g0) < s.cfg.MinGroupSize {
		out.Skipped = true
		out.SkipReason = msgSmallGroups
		return out
	}

	res := stats.WelchTTest(g1, g0, alt)
	out.T = models.Stat(res.T)
	out.DF = models.Stat(res.DF)
	out.PValue = models.Stat(res.P)
	out.CohensD = models.Stat(stats.CohensD(g1, g0))
	return out
}

func (s *HypothesisService) oneSample(hypothesis, label string, x []float64) models.OneSampleResult {
	n, mean, sd := stats.Describe(x)
	out := models.OneSampleResult{
		Hypothesis:  hypothesis,
		Label:       label,
		Alternative: stats.Greater.String(),
		PopMean:     s.cfg.NeutralMean,
		N:           n,
		Mean:        models.Stat(mean),
		SD:          models.Stat(sd),
		T:           models.Stat(math.NaN()),
		DF:          models.Stat(math.NaN()),
		PValue:      models.Stat(math.NaN()),
	}
	if n < s.cfg.MinExclusivitySample {
		out.Skipped = true
		out.SkipReason = msgTooFewExcl
		return out
	}

	res := stats.OneSampleTTest(x, s.cfg.NeutralMean, stats.Greater)
	out.T = models.Stat(res.T)
	out.DF = models.Stat(res.DF)
	out.PValue = models.Stat(res.P)
	return out
}

func (s *HypothesisService) contingency(fin []float64, finGroups []int, status []float64, finHeader string) models.ContingencyResult {
	agree := AgreeIndicator(status, s.cfg.StatusAgreeThreshold)
	table := stats.CrossTab2x2(finGroups, agree)

	out := models.ContingencyResult{
		Hypothesis:  "H2b",
		Label:       fmt.Sprintf("H2b (Chi-square, optional): Financial stability × agreement that BNPL attracts high-status shoppers (≥%g)", s.cfg.StatusAgreeThreshold),
		RowVar:      finHeader,
		ColVar:      fmt.Sprintf("status >= %g", s.cfg.StatusAgreeThreshold),
		Table:       table,
		Chi2:        models.Stat(math.NaN()),
		DOF:         1,
		PValue:      models.Stat(math.NaN()),
		Phi:         models.Stat(math.NaN()),
		MinExpected: models.Stat(math.NaN()),
	}

	for i, v := range fin {
		if !math.IsNaN(v) && finGroups[i] == Excluded {
			out.Skipped = true
			out.SkipReason = msgFinNotBinary
			return out
		}
	}
	if !table.Complete() {
		out.Skipped = true
		out.SkipReason = msgNotTwoByTwo
		return out
	}

	chi := stats.ChiSquare2x2(table)
	out.Chi2 = models.Stat(chi.Chi2)
	out.DOF = chi.DOF
	out.PValue = models.Stat(chi.P)
	out.Phi = models.Stat(chi.Phi)
	out.MinExpected = models.Stat(chi.MinExpected)

	if chi.MinExpected < s.cfg.FisherBelowExpected {
		f := stats.FisherExact2x2(table)
		out.Fisher = &models.FisherResult{
			OddsRatio: models.Stat(f.OddsRatio),
			PValue:    models.Stat(f.P),
		}
	}
	return out
}

func datasetName(df *state.DataFrame) string {
	if df.FileName != "" {
		return df.FileName
	}
	return df.FilePath
}
