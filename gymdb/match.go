package gymdb

// Candidates below this similarity are dropped even if the bag-of-words
// matcher proposed them.
const minMatchScore = 0.25

// trigramSimilarity scores two strings by trigram-set overlap (Dice
// coefficient), the same family of measure the matcher uses internally but
// exposed so callers can tell a confident match from a guess.
func trigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		if a == b {
			return 1.0
		}
		return 0.0
	}
	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}
	return 2.0 * float64(shared) / float64(len(ta)+len(tb))
}

func trigrams(s string) map[string]bool {
	padded := "  " + s + " "
	out := make(map[string]bool)
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]] = true
	}
	return out
}

// sortByScore sorts scores descending in place, calling swap for every
// element exchange so a parallel slice stays aligned.
func sortByScore(n int, scores []float64, swap func(i, j int)) {
	for i := 1; i < n; i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			swap(j, j-1)
		}
	}
}

// Unique reports whether the best-scored candidate is a confident, clearly
// separated winner over the runner-up.
func Unique(scores []float64) bool {
	if len(scores) == 0 {
		return false
	}
	if len(scores) == 1 {
		return scores[0] >= 0.5
	}
	return scores[0] >= 0.5 && scores[0]-scores[1] >= 0.2
}
