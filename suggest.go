package fastc

// levenshtein computes the classic edit distance between two strings.
// No library in the retrieved pack offers this (see DESIGN.md); it is
// small enough and specific enough to the diagnostics' "did you mean"
// feature that hand-rolling it is the right call rather than pulling
// in a dependency for a dozen lines.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// didYouMean finds the closest candidate to name within a generous edit
// distance, for use in undefined-name diagnostics. It returns "" when
// nothing is close enough to be a plausible typo correction.
func didYouMean(name string, candidates []string) string {
	best := ""
	bestDist := len(name)/2 + 2 // never suggest something wildly different
	for _, c := range candidates {
		d := levenshtein(name, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
