package service

import "math"

// Group labels. Excluded covers neutral answers and missing values.
const (
	Excluded = -1
	Group0   = 0
	Group1   = 1
)

// PartitionAgreement labels values at or above agreeAt as 1 and at or
// below disagreeAt as 0. The neutral band and NaN are excluded.
func PartitionAgreement(values []float64, agreeAt, disagreeAt float64) []int {
	labels := make([]int, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			labels[i] = Excluded
		case v >= agreeAt:
			labels[i] = Group1
		case v <= disagreeAt:
			labels[i] = Group0
		default:
			labels[i] = Excluded
		}
	}
	return labels
}

// BinaryGroups keeps values that are exactly 0 or 1.
func BinaryGroups(values []float64) []int {
	labels := make([]int, len(values))
	for i, v := range values {
		switch v {
		case 0:
			labels[i] = Group0
		case 1:
			labels[i] = Group1
		default:
			labels[i] = Excluded
		}
	}
	return labels
}

// AgreeIndicator labels values at or above threshold as 1 and the rest,
// NaN included, as 0.
func AgreeIndicator(values []float64, threshold float64) []int {
	labels := make([]int, len(values))
	for i, v := range values {
		if v >= threshold {
			labels[i] = Group1
		} else {
			labels[i] = Group0
		}
	}
	return labels
}

// SelectGroup returns the non-missing y values whose label is group.
func SelectGroup(y []float64, labels []int, group int) []float64 {
	out := []float64{}
	for i, v := range y {
		if i < len(labels) && labels[i] == group && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
