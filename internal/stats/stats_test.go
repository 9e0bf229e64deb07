package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestCompletePairs(t *testing.T) {
	xs, ys := CompletePairs(
		[]float64{1, nan, 3, 4, 5},
		[]float64{2, 2, nan, 8},
	)
	assert.Equal(t, []float64{1, 4}, xs)
	assert.Equal(t, []float64{2, 8}, ys)
}

func TestRanksAverageTies(t *testing.T) {
	got := Ranks([]float64{1, 2, 2, 3, 4, 4, 4, 5, 5, 1})
	want := []float64{1.5, 3.5, 3.5, 5, 7, 7, 7, 9.5, 9.5, 1.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ranks mismatch (-want +got):\n%s", diff)
	}
}

func TestSpearman(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		rho  float64
		p    float64
	}{
		{
			name: "small monotone-ish sample",
			x:    []float64{1, 2, 3, 4, 5},
			y:    []float64{5, 6, 7, 8, 7},
			rho:  0.8207826816681233,
			p:    0.0885870053135438,
		},
		{
			name: "positive",
			x:    []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			y:    []float64{2, 1, 4, 3, 7, 5, 6, 9, 10, 8},
			rho:  0.9030303030303031,
			p:    0.00034361219776327925,
		},
		{
			name: "negative",
			x:    []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			y:    []float64{9, 10, 8, 6, 7, 5, 4, 1, 3, 2},
			rho:  -0.9393939393939394,
			p:    5.484052998513638e-05,
		},
		{
			name: "ties",
			x:    []float64{1, 2, 2, 3, 4, 4, 4, 5, 5, 1},
			y:    []float64{1, 3, 2, 2, 5, 4, 3, 5, 4, 2},
			rho:  0.8512658227848101,
			p:    0.0017820688504620744,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Spearman(tt.x, tt.y)
			assert.Equal(t, len(tt.x), res.N)
			assert.InDelta(t, tt.rho, res.Rho, 1e-9)
			assert.InDelta(t, tt.p, res.PValue, 1e-7)
		})
	}
}

func TestSpearmanDropsIncompletePairs(t *testing.T) {
	res := Spearman(
		[]float64{1, 2, nan, 3, 4, 5},
		[]float64{5, 6, 1, 7, 8, nan},
	)
	assert.Equal(t, 4, res.N)
	assert.InDelta(t, 1.0, res.Rho, 1e-12)
	assert.InDelta(t, 0.0, res.PValue, 1e-9)
}

func TestSpearmanConstantInput(t *testing.T) {
	res := Spearman([]float64{3, 3, 3, 3}, []float64{1, 2, 3, 4})
	assert.True(t, math.IsNaN(res.Rho))
	assert.True(t, math.IsNaN(res.PValue))
}

func TestOneSidedP(t *testing.T) {
	tests := []struct {
		name string
		rho  float64
		p    float64
		dir  Direction
		want float64
	}{
		{"positive as expected", 0.4, 0.02, Positive, 0.01},
		{"positive against expectation", -0.4, 0.02, Positive, 0.99},
		{"negative as expected", -0.4, 0.3, Negative, 0.15},
		{"negative against expectation", 0.4, 0.3, Negative, 0.85},
		{"zero rho counts as matching", 0, 1, Positive, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, OneSidedP(tt.rho, tt.p, tt.dir), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(OneSidedP(nan, 0.1, Positive)))
	assert.True(t, math.IsNaN(OneSidedP(0.2, nan, Positive)))
}

func TestWelchTTest(t *testing.T) {
	a := []float64{4.2, 3.8, 4.5, 4.0, 3.9, 4.8, 4.1}
	b := []float64{3.1, 3.5, 2.9, 3.8, 3.2, 3.0}

	greater := WelchTTest(a, b, Greater)
	assert.InDelta(t, 4.865217860238755, greater.T, 1e-9)
	assert.InDelta(t, 10.823334955729331, greater.DF, 1e-9)
	assert.InDelta(t, 0.0002611590303180889, greater.P, 1e-8)

	two := WelchTTest(a, b, TwoSided)
	assert.InDelta(t, 0.0005223180606361779, two.P, 1e-8)

	less := WelchTTest(a, b, Less)
	assert.InDelta(t, 1-0.0002611590303180889, less.P, 1e-8)
}

func TestWelchTTestTooSmall(t *testing.T) {
	res := WelchTTest([]float64{1}, []float64{1, 2, 3}, TwoSided)
	assert.True(t, math.IsNaN(res.T))
	assert.True(t, math.IsNaN(res.P))
}

func TestOneSampleTTest(t *testing.T) {
	x := []float64{3.5, 4.0, 3.2, 4.5, 3.8, 2.9, 4.1, 3.6, nan}
	res := OneSampleTTest(x, 3.0, Greater)

	assert.InDelta(t, 3.8617409905715947, res.T, 1e-9)
	assert.Equal(t, 7.0, res.DF)
	assert.InDelta(t, 0.0030987602904171403, res.P, 1e-8)
}

func TestCohensD(t *testing.T) {
	a := []float64{4.2, 3.8, 4.5, 4.0, 3.9, 4.8, 4.1}
	b := []float64{3.1, 3.5, 2.9, 3.8, 3.2, 3.0}
	assert.InDelta(t, 2.6975276859329878, CohensD(a, b), 1e-9)

	assert.True(t, math.IsNaN(CohensD([]float64{1}, b)))
	assert.True(t, math.IsNaN(CohensD([]float64{2, 2}, []float64{2, 2, 2})))
}

func TestDescribe(t *testing.T) {
	n, mean, sd := Describe([]float64{3.5, 4.0, 3.2, 4.5, 3.8, 2.9, 4.1, 3.6, nan})
	assert.Equal(t, 8, n)
	assert.InDelta(t, 3.7, mean, 1e-12)
	assert.InDelta(t, 0.5126959555693246, sd, 1e-12)

	n, mean, sd = Describe([]float64{nan})
	assert.Equal(t, 0, n)
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(sd))
}

func TestDropMissing(t *testing.T) {
	got := DropMissing([]float64{nan, 1, nan, 2})
	require.Len(t, got, 2)
	if diff := cmp.Diff([]float64{1, 2}, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("DropMissing mismatch (-want +got):\n%s", diff)
	}
}
