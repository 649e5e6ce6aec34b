// Package fuzzy scores string similarity on a 0-100 scale.
//
// The match engine depends only on the Scorer interface; Levenshtein is the
// edit-distance implementation used in production.
package fuzzy

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxScore is the score of a perfect match.
const MaxScore = 100

// Scorer compares two strings.
type Scorer interface {
	// PartialRatio is the best alignment score of the shorter string against
	// any same-length window of the longer one.
	PartialRatio(a, b string) int

	// Ratio is the whole-string alignment score.
	Ratio(a, b string) int
}

// Levenshtein scores strings by rune-level edit distance.
//
// Scores are floored, so MaxScore is only returned for identical input
// (Ratio) or an exact contiguous substring (PartialRatio).
type Levenshtein struct{}

var _ Scorer = Levenshtein{}

// Ratio returns floor(100 * (L - d) / L) where d is the edit distance and L
// the longer rune length. Two empty strings score MaxScore.
func (Levenshtein) Ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return MaxScore
	}
	d := levenshtein.ComputeDistance(a, b)
	return MaxScore * (longest - d) / longest
}

// PartialRatio slides the shorter string over the longer one and returns the
// best window Ratio. An empty string scores 0 against a non-empty one.
func (l Levenshtein) PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return MaxScore
		}
		return 0
	}

	s := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		score := l.Ratio(s, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == MaxScore {
				break
			}
		}
	}
	return best
}

var folder = cases.Fold()

// Fold normalizes s for case-insensitive comparison: NFC composition
// followed by Unicode case folding.
func Fold(s string) string {
	return folder.String(norm.NFC.String(s))
}
