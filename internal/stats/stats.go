// Package stats implements the closed-form tests used by the survey
// batteries on top of gonum. Missing observations are NaN throughout.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Alternative selects the alternative hypothesis of a t-test.
type Alternative int

const (
	TwoSided Alternative = iota
	Greater
	Less
)

func (a Alternative) String() string {
	switch a {
	case Greater:
		return "greater"
	case Less:
		return "less"
	default:
		return "two-sided"
	}
}

// Direction is the hypothesised sign of a correlation.
type Direction int

const (
	Positive Direction = iota
	Negative
)

func (d Direction) String() string {
	if d == Negative {
		return "-"
	}
	return "+"
}

// CompletePairs returns the pairs where neither x[i] nor y[i] is NaN.
// Extra elements of the longer slice are ignored.
func CompletePairs(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// DropMissing returns the non-NaN values of x.
func DropMissing(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Ranks assigns 1-based ranks, giving tied values the mean of their ranks.
func Ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// CorrelationResult is a rank correlation with its two-sided p-value.
type CorrelationResult struct {
	N      int
	Rho    float64
	PValue float64
}

// Spearman computes Spearman's rho over the complete pairs of x and y.
// The two-sided p-value uses the t approximation with n-2 degrees of freedom.
func Spearman(x, y []float64) CorrelationResult {
	xs, ys := CompletePairs(x, y)
	n := len(xs)
	res := CorrelationResult{N: n, Rho: math.NaN(), PValue: math.NaN()}
	if n < 2 {
		return res
	}

	res.Rho = stat.Correlation(Ranks(xs), Ranks(ys), nil)
	if math.IsNaN(res.Rho) || n < 3 {
		return res
	}

	df := float64(n - 2)
	denom := (1 + res.Rho) * (1 - res.Rho)
	if denom <= 0 {
		res.PValue = 0
		return res
	}
	t := res.Rho * math.Sqrt(df/denom)
	res.PValue = tPValue(t, df, TwoSided)
	return res
}

// OneSidedP converts a two-sided p-value into a directional one: half of it
// when rho has the hypothesised sign (zero counts as matching), otherwise
// one minus half of it.
func OneSidedP(rho, pTwo float64, dir Direction) float64 {
	if math.IsNaN(rho) || math.IsNaN(pTwo) {
		return math.NaN()
	}
	half := pTwo / 2
	matches := rho >= 0
	if dir == Negative {
		matches = rho <= 0
	}
	if matches {
		return half
	}
	return 1 - half
}

// TTestResult holds a t statistic, its degrees of freedom and p-value.
type TTestResult struct {
	T  float64
	DF float64
	P  float64
}

// WelchTTest compares the means of a and b without assuming equal
// variances. NaN values are dropped from each sample first.
func WelchTTest(a, b []float64, alt Alternative) TTestResult {
	a, b = DropMissing(a), DropMissing(b)
	res := TTestResult{T: math.NaN(), DF: math.NaN(), P: math.NaN()}
	if len(a) < 2 || len(b) < 2 {
		return res
	}

	n1, n2 := float64(len(a)), float64(len(b))
	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	se1, se2 := v1/n1, v2/n2

	res.T = (m1 - m2) / math.Sqrt(se1+se2)
	res.DF = (se1 + se2) * (se1 + se2) / (se1*se1/(n1-1) + se2*se2/(n2-1))
	res.P = tPValue(res.T, res.DF, alt)
	return res
}

// OneSampleTTest tests the mean of x against mu.
func OneSampleTTest(x []float64, mu float64, alt Alternative) TTestResult {
	x = DropMissing(x)
	res := TTestResult{T: math.NaN(), DF: math.NaN(), P: math.NaN()}
	if len(x) < 2 {
		return res
	}

	n := float64(len(x))
	mean, variance := stat.MeanVariance(x, nil)
	res.T = (mean - mu) / math.Sqrt(variance/n)
	res.DF = n - 1
	res.P = tPValue(res.T, res.DF, alt)
	return res
}

// CohensD is the standardised mean difference of a over b using the pooled
// standard deviation. It is NaN for groups smaller than two or a zero
// pooled deviation.
func CohensD(a, b []float64) float64 {
	a, b = DropMissing(a), DropMissing(b)
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return math.NaN()
	}
	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	sp := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	if sp <= 0 {
		return math.NaN()
	}
	return (m1 - m2) / sp
}

// Describe returns the count, mean and sample standard deviation of the
// non-missing values of x.
func Describe(x []float64) (n int, mean, sd float64) {
	x = DropMissing(x)
	switch len(x) {
	case 0:
		return 0, math.NaN(), math.NaN()
	case 1:
		return 1, x[0], math.NaN()
	}
	mean, variance := stat.MeanVariance(x, nil)
	return len(x), mean, math.Sqrt(variance)
}

func tPValue(t, df float64, alt Alternative) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		switch {
		case alt == TwoSided:
			return 0
		case (alt == Greater) == (t > 0):
			return 0
		default:
			return 1
		}
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	switch alt {
	case Greater:
		return dist.Survival(t)
	case Less:
		return dist.CDF(t)
	default:
		return math.Min(1, 2*dist.Survival(math.Abs(t)))
	}
}
