package service

import "strings"

// LevenshteinRatio calculates similarity ratio (0-1)
func LevenshteinRatio(s1, s2 string) float64 {
	r1 := []rune(strings.ToLower(s1))
	r2 := []rune(strings.ToLower(s2))
	maxLen := float64(max(len(r1), len(r2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(levenshtein(r1, r2)) / maxLen)
}

func levenshtein(r1, r2 []rune) int {
	len1, len2 := len(r1), len(r2)

	row := make([]int, len2+1)
	for i := 0; i <= len2; i++ {
		row[i] = i
	}

	for i := 1; i <= len1; i++ {
		prev := i
		for j := 1; j <= len2; j++ {
			var val int
			if r1[i-1] == r2[j-1] {
				val = row[j-1]
			} else {
				val = min(row[j-1]+1, prev+1, row[j]+1)
			}
			row[j-1] = prev
			prev = val
		}
		row[len2] = prev
	}
	return row[len2]
}
