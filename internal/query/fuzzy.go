package query

import (
	"regexp"
	"strings"

	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// Fuzzy scoring weights. Token overlap dominates when the query words
// appear somewhere in the target; edit similarity catches typos.
const (
	fuzzyTokenWeight = 0.7
	fuzzyEditWeight  = 0.5

	// fuzzyThreshold is the minimum FuzzyScore for a fuzzy text filter
	// to accept a record.
	fuzzyThreshold = 0.5

	// editWindow pads the query length when truncating the target before
	// edit-distance computation, keeping the cost bounded on long names.
	editWindow = 10
)

// Levenshtein returns the edit distance between two strings, by runes.
func Levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

// FuzzyScore rates how well query matches target, in [0,1]. Exact
// (case-insensitive) equality scores 1.0, substring containment 0.9;
// otherwise the score is the better of weighted token overlap and weighted
// normalized edit similarity against a length-bounded target prefix.
func FuzzyScore(query, target string) float64 {
	q := snapshot.Normalize(query)
	t := snapshot.Normalize(target)

	if t == q {
		return 1.0
	}
	if strings.Contains(t, q) {
		return 0.9
	}

	qTokens := snapshot.Tokenize(q)
	if len(qTokens) == 0 {
		return 0.0
	}
	tTokens := snapshot.Tokenize(t)

	overlap := 0
	for _, qt := range qTokens {
		for _, tt := range tTokens {
			if strings.Contains(tt, qt) || strings.Contains(qt, tt) {
				overlap++
				break
			}
		}
	}
	tokenScore := float64(overlap) / float64(len(qTokens))

	qRunes := []rune(q)
	tRunes := []rune(t)
	window := len(qRunes) + editWindow
	if window > len(tRunes) {
		window = len(tRunes)
	}
	truncated := string(tRunes[:window])

	maxLen := max(len(qRunes), window)
	editScore := 0.0
	if maxLen > 0 {
		editScore = 1.0 - float64(Levenshtein(q, truncated))/float64(maxLen)
	}

	return max(tokenScore*fuzzyTokenWeight, editScore*fuzzyEditWeight)
}

// MatchText reports whether text matches any of the pattern alternatives
// under the given match type. An invalid regex pattern degrades to a
// contains match rather than failing the query.
func MatchText(text string, patterns []string, matchType MatchType) bool {
	textLower := snapshot.Normalize(text)

	for _, pattern := range patterns {
		patternLower := snapshot.Normalize(pattern)

		switch matchType {
		case MatchExact:
			if textLower == patternLower {
				return true
			}
		case MatchFuzzy:
			if FuzzyScore(patternLower, textLower) > fuzzyThreshold {
				return true
			}
		case MatchRegex:
			re, err := regexp.Compile(patternLower)
			if err != nil {
				if strings.Contains(textLower, patternLower) {
					return true
				}
				continue
			}
			if re.MatchString(textLower) {
				return true
			}
		default:
			// contains, and the permissive fallback for anything else
			if strings.Contains(textLower, patternLower) {
				return true
			}
		}
	}
	return false
}
