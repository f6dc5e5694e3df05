package align

import (
	"github.com/pmezard/go-difflib/difflib"
)

// MaxScore is the score of two strings that match completely.
const MaxScore = 100.0

// Ratio scores the character similarity of a and b in [0,100] as
// 2*M/T*100, where T is the combined rune count and M the total size of
// the matching blocks found by recursive longest-common-substring matching.
// Two empty strings score 100. SelectBest reports Ratio(candidate, line).
func Ratio(a, b string) float64 {
	m := difflib.NewMatcherWithJunk(splitRunes(a), splitRunes(b), false, nil)
	return m.Ratio() * MaxScore
}

// SelectBest scores every candidate against line and returns the one with
// the greatest score, its score and its index. Ties go to the earliest
// candidate. An empty candidate list yields ErrNoCandidates.
func SelectBest(line string, candidates []string) (string, float64, int, error) {
	if len(candidates) == 0 {
		return "", 0, -1, ErrNoCandidates
	}

	// The line is the second sequence so its index is built once.
	m := difflib.NewMatcherWithJunk(nil, splitRunes(line), false, nil)

	best, bestScore := -1, -1.0
	for i, c := range candidates {
		m.SetSeq1(splitRunes(c))
		score := m.Ratio() * MaxScore
		if score > bestScore {
			best, bestScore = i, score
			if score == MaxScore {
				break
			}
		}
	}
	return candidates[best], bestScore, best, nil
}

// splitRunes turns a string into one element per rune, the sequence form
// the matcher works on.
func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
