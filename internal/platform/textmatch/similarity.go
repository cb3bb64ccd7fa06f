// Package textmatch scores name similarity for identity resolution across
// sources that share no common key.
package textmatch

import "strings"

// MatchThreshold is the confidence a candidate must strictly exceed to count
// as a match. Exactly 0.8 is not a match; downstream completion statistics
// depend on this boundary.
const MatchThreshold = 0.8

// Last names are the more stable identifier across forms, so they carry
// most of the weight.
const (
	firstNameWeight = 0.3
	lastNameWeight  = 0.7
)

// Name is a (first, last) pair as found in a source record.
type Name struct {
	First string
	Last  string
}

// MatchResult reports the best candidate for a target name. Index is the
// candidate's position in the scanned slice, or -1 when nothing matched.
type MatchResult struct {
	IsMatch    bool
	Confidence float64
	Index      int
	Matched    Name
}

// Similarity returns (maxLen - editDistance) / maxLen for the two strings
// after trimming and case-folding, clamped to [0, 1]. Two empty strings
// score 0: an absent field carries no identity signal.
func Similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra := []rune(a)
	rb := []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	score := float64(maxLen-levenshtein(ra, rb)) / float64(maxLen)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Confidence combines per-field similarities into one weighted score.
func Confidence(target, candidate Name) float64 {
	if normalize(target.First) == "" || normalize(target.Last) == "" {
		return 0
	}
	if normalize(candidate.First) == "" || normalize(candidate.Last) == "" {
		return 0
	}

	return firstNameWeight*Similarity(target.First, candidate.First) +
		lastNameWeight*Similarity(target.Last, candidate.Last)
}

// BestMatch scans candidates in order and returns the single result with the
// highest confidence. Ties resolve to the first maximal candidate, so the
// outcome is deterministic for a given scan order.
func BestMatch(target Name, candidates []Name) MatchResult {
	best := MatchResult{Index: -1}
	if normalize(target.First) == "" || normalize(target.Last) == "" {
		return best
	}

	for i, candidate := range candidates {
		confidence := Confidence(target, candidate)
		if confidence > best.Confidence {
			best = MatchResult{
				Confidence: confidence,
				Index:      i,
				Matched:    candidate,
			}
		}
	}

	best.IsMatch = best.Confidence > MatchThreshold
	if !best.IsMatch {
		best.Matched = Name{}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// levenshtein computes edit distance over runes with a two-row table, so
// accented names score by character rather than by UTF-8 byte.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(values ...int) int {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}
