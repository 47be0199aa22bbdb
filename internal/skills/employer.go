// Package skills provides the normalization and matching rules used to check a
// draft's titles and skills against the candidate's taxonomies.
package skills

import (
	"strings"
	"unicode"

	"github.com/jonathan/resume-grounder/internal/types"
)

// Employer matching thresholds. A key matches an employer string when the two
// normalized forms are equal, or when one is a prefix of the other, the shared
// prefix is at least MinOverlapChars long, and it covers at least
// MinOverlapRatio of the longer form.
const (
	MinOverlapRatio = 0.6
	MinOverlapChars = 4
)

// NormalizeKey case-folds s and strips everything that is not a letter or digit.
// "GLP Technology Co." and "glp_technology" both normalize to "glptechnology".
func NormalizeKey(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// EmployerSimilarity scores how well employer matches key. It returns 1 for an
// exact normalized match, the prefix overlap ratio for an accepted prefix match,
// and 0 otherwise.
func EmployerSimilarity(employer, key string) float64 {
	a, b := NormalizeKey(employer), NormalizeKey(key)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.HasPrefix(longer, shorter) {
		return 0
	}

	overlap := len(shorter)
	if overlap < MinOverlapChars {
		return 0
	}
	ratio := float64(overlap) / float64(len(longer))
	if ratio < MinOverlapRatio {
		return 0
	}
	return ratio
}

// MatchEmployer finds the TitleOptions key that best matches employer.
// Ties are broken by key order so the result is deterministic.
func MatchEmployer(employer string, options types.TitleOptions) (string, bool) {
	bestKey := ""
	bestScore := 0.0
	for _, key := range types.SortedKeys(options) {
		score := EmployerSimilarity(employer, key)
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}
	return bestKey, bestScore > 0
}

// NormalizeSpace collapses runs of whitespace and trims the ends
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleAllowed reports whether title appears, whitespace-normalized, in allowed
func TitleAllowed(title string, allowed []string) bool {
	want := NormalizeSpace(title)
	if want == "" {
		return false
	}
	for _, candidate := range allowed {
		if NormalizeSpace(candidate) == want {
			return true
		}
	}
	return false
}
