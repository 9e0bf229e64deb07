package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Table2x2 is a 2x2 contingency table indexed [row][col].
type Table2x2 [2][2]int

// CrossTab2x2 counts pairs of 0/1 labels. Any other label (e.g. -1 for
// missing) drops the pair.
func CrossTab2x2(rows, cols []int) Table2x2 {
	var t Table2x2
	n := len(rows)
	if len(cols) < n {
		n = len(cols)
	}
	for i := 0; i < n; i++ {
		r, c := rows[i], cols[i]
		if (r != 0 && r != 1) || (c != 0 && c != 1) {
			continue
		}
		t[r][c]++
	}
	return t
}

// Total returns the number of observations in the table.
func (t Table2x2) Total() int {
	return t[0][0] + t[0][1] + t[1][0] + t[1][1]
}

// RowSums returns the row marginals.
func (t Table2x2) RowSums() [2]int {
	return [2]int{t[0][0] + t[0][1], t[1][0] + t[1][1]}
}

// ColSums returns the column marginals.
func (t Table2x2) ColSums() [2]int {
	return [2]int{t[0][0] + t[1][0], t[0][1] + t[1][1]}
}

// Complete reports whether both rows and both columns are populated, i.e.
// whether a cross-tabulation of the data would really be 2x2.
func (t Table2x2) Complete() bool {
	r, c := t.RowSums(), t.ColSums()
	return r[0] > 0 && r[1] > 0 && c[0] > 0 && c[1] > 0
}

// ChiSquareResult is a Pearson chi-square test of independence.
type ChiSquareResult struct {
	Chi2        float64
	DOF         int
	P           float64
	Phi         float64
	Expected    [2][2]float64
	MinExpected float64
	N           int
}

// ChiSquare2x2 runs the chi-square test of independence with Yates'
// continuity correction. The table must be Complete.
func ChiSquare2x2(t Table2x2) ChiSquareResult {
	n := t.Total()
	res := ChiSquareResult{DOF: 1, N: n, Chi2: math.NaN(), P: math.NaN(), Phi: math.NaN(), MinExpected: math.NaN()}
	if !t.Complete() {
		return res
	}

	rows, cols := t.RowSums(), t.ColSums()
	total := float64(n)
	res.MinExpected = math.Inf(1)
	chi2 := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			e := float64(rows[i]) * float64(cols[j]) / total
			res.Expected[i][j] = e
			if e < res.MinExpected {
				res.MinExpected = e
			}
			diff := math.Abs(float64(t[i][j]) - e)
			diff -= math.Min(0.5, diff)
			chi2 += diff * diff / e
		}
	}

	res.Chi2 = chi2
	res.P = distuv.ChiSquared{K: 1}.Survival(chi2)
	res.Phi = math.Sqrt(chi2 / total)
	return res
}

// FisherResult is Fisher's exact test on a 2x2 table.
type FisherResult struct {
	OddsRatio float64
	P         float64
}

// FisherExact2x2 returns the sample odds ratio (a*d)/(b*c), +Inf when b or c
// is zero, and the two-sided p-value: the total probability of all tables
// with the observed margins that are no more likely than the observed one.
func FisherExact2x2(t Table2x2) FisherResult {
	if !t.Complete() {
		return FisherResult{OddsRatio: math.NaN(), P: 1}
	}

	res := FisherResult{OddsRatio: math.Inf(1)}
	if t[1][0] > 0 && t[0][1] > 0 {
		res.OddsRatio = float64(t[0][0]*t[1][1]) / float64(t[1][0]*t[0][1])
	}

	rows, cols := t.RowSums(), t.ColSums()
	n1, n2, k := rows[0], rows[1], cols[0]
	lo := k - n2
	if lo < 0 {
		lo = 0
	}
	hi := k
	if n1 < hi {
		hi = n1
	}

	observed := hypergeomLogPMF(t[0][0], n1, n2, k)
	// Relative tolerance keeps tables with numerically equal probability.
	threshold := observed + math.Log1p(1e-7)
	p := 0.0
	for x := lo; x <= hi; x++ {
		lp := hypergeomLogPMF(x, n1, n2, k)
		if lp <= threshold {
			p += math.Exp(lp)
		}
	}
	res.P = math.Min(1, p)
	return res
}

// hypergeomLogPMF is log P(X = x) when drawing k items from n1 successes
// and n2 failures.
func hypergeomLogPMF(x, n1, n2, k int) float64 {
	return combin.LogGeneralizedBinomial(float64(n1), float64(x)) +
		combin.LogGeneralizedBinomial(float64(n2), float64(k-x)) -
		combin.LogGeneralizedBinomial(float64(n1+n2), float64(k))
}
