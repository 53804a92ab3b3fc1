package bill

import (
	"math"
	"strings"
)

// areDuplicates reports whether two line items represent the same charge.
// An exact name match merges unconditionally; a near-match (Jaccard above
// the threshold) additionally requires the amounts to agree, so that
// distinct items sharing most words ("Paracetamol 500mg" vs "650mg") are
// not merged on name alone.
func (e *Engine) areDuplicates(a, b LineItem) bool {
	nameA := strings.ToLower(strings.TrimSpace(a.Name))
	nameB := strings.ToLower(strings.TrimSpace(b.Name))

	if nameA == nameB {
		return true
	}

	if jaccardSimilarity(nameA, nameB) > e.cfg.SimilarityThreshold {
		diff := math.Abs(a.Amount - b.Amount)
		if diff < e.cfg.AmountEpsilon {
			return true
		}
		// Relative test divides by the first item's amount only. This is
		// asymmetric but it is observable behavior; keep it as-is.
		if diff/math.Max(math.Abs(a.Amount), e.cfg.AmountEpsilon) < e.cfg.RelativeAmountTolerance {
			return true
		}
	}

	return false
}

// jaccardSimilarity computes word-set overlap between two names:
// |intersection| / |union| over whitespace-tokenized words
func jaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	union := len(wordsB)
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		words[word] = struct{}{}
	}
	return words
}
