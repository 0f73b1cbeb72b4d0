// Package match implements similarity scoring and duplicate detection for
// customer records (leads, contacts, accounts). Detection runs as a staged
// cascade: exact contact details, exact place identifier, fuzzy name, fuzzy
// address. The first stage that yields matches wins.
package match

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-rune insertions, deletions, and substitutions needed to
// transform a into b. Comparison is rune-wise and case-sensitive.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row DP over the classic edit distance matrix.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns a normalized similarity score in [0,1] between two
// strings: (L - d) / L where d is the Levenshtein distance and L the length
// of the longer string. Identical strings score 1.0; if either string is
// empty the score is 0. Callers are responsible for case normalization.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := max(la, lb)
	d := Levenshtein(a, b)
	return float64(longest-d) / float64(longest)
}

// IsSimilar reports whether Similarity(a, b) meets the given threshold.
func IsSimilar(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}
