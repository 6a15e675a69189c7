package textdiff

import "math"

// Match locates the best instance of pattern in text near loc, tolerating
// errors, and returns its index or -1. loc is clamped to [0, len(text)].
// An empty pattern matches at the (clamped) expected location.
func (e *Engine) Match(text, pattern string, loc int) int {
	return e.matchRunes([]rune(text), []rune(pattern), loc)
}

func (e *Engine) matchRunes(text, pattern []rune, loc int) int {
	loc = max(0, min(loc, len(text)))
	switch {
	case runesEqual(text, pattern):
		// Shortcut; not guaranteed by the algorithm itself.
		return 0
	case len(text) == 0:
		return -1
	case loc+len(pattern) <= len(text) && runesEqual(text[loc:loc+len(pattern)], pattern):
		// Perfect match at the perfect spot.
		return loc
	}
	return e.matchBitap(text, pattern, loc)
}

// matchBitap runs the Bitap algorithm with an error-count ladder. The
// pattern must not exceed MatchMaxBits runes.
func (e *Engine) matchBitap(text, pattern []rune, loc int) int {
	alphabet := matchAlphabet(pattern)

	// Highest score beyond which we give up.
	scoreThreshold := e.MatchThreshold
	// Seed with the nearest exact occurrences in either direction.
	if best := runesIndex(text, pattern, loc); best != -1 {
		scoreThreshold = math.Min(e.matchBitapScore(0, best, loc, pattern), scoreThreshold)
		if best = runesLastIndex(text, pattern, loc+len(pattern)); best != -1 {
			scoreThreshold = math.Min(e.matchBitapScore(0, best, loc, pattern), scoreThreshold)
		}
	}

	matchMask := 1 << (len(pattern) - 1)
	bestLoc := -1
	binMax := len(pattern) + len(text)
	var lastRD []int
	for d := 0; d < len(pattern); d++ {
		// Each ladder step allows one more error. Binary search for the
		// widest search radius around loc still within the score budget.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if e.matchBitapScore(d, loc+binMid, loc, pattern) <= scoreThreshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		// This radius caps the next iteration too.
		binMax = binMid
		start := max(1, loc-binMid+1)
		finish := min(loc+binMid, len(text)) + len(pattern)

		rd := make([]int, finish+2)
		rd[finish+1] = (1 << d) - 1
		for j := finish; j >= start; j-- {
			var charMatch int
			if len(text) > j-1 {
				charMatch = alphabet[text[j-1]]
			}
			if d == 0 {
				// First pass: exact match.
				rd[j] = ((rd[j+1] << 1) | 1) & charMatch
			} else {
				// Subsequent passes: fuzzy match with substitution,
				// insertion, and deletion allowances.
				rd[j] = ((rd[j+1]<<1)|1)&charMatch |
					(((lastRD[j+1] | lastRD[j]) << 1) | 1) |
					lastRD[j+1]
			}
			if rd[j]&matchMask != 0 {
				score := e.matchBitapScore(d, j-1, loc, pattern)
				// This match will almost certainly be better than any
				// existing one, but check anyway.
				if score <= scoreThreshold {
					scoreThreshold = score
					bestLoc = j - 1
					if bestLoc > loc {
						// When passing loc, don't exceed the current
						// distance from loc.
						start = max(1, 2*loc-bestLoc)
					} else {
						// Already passed loc; downhill from here.
						break
					}
				}
			}
		}
		if e.matchBitapScore(d+1, loc, loc, pattern) > scoreThreshold {
			// No hope for a better match at greater error levels.
			break
		}
		lastRD = rd
	}
	return bestLoc
}

// matchBitapScore rates a match with errs errors at position x against the
// expected location loc. 0.0 is a perfect match, 1.0 a hopeless one.
func (e *Engine) matchBitapScore(errs, x, loc int, pattern []rune) float64 {
	accuracy := float64(errs) / float64(len(pattern))
	proximity := loc - x
	if proximity < 0 {
		proximity = -proximity
	}
	if e.MatchDistance == 0 {
		if proximity == 0 {
			return accuracy
		}
		return 1.0
	}
	return accuracy + float64(proximity)/float64(e.MatchDistance)
}

// matchAlphabet builds the per-rune bitmasks for Bitap: bit i of the mask
// for c is set iff pattern[i] == c (counted from the high end).
func matchAlphabet(pattern []rune) map[rune]int {
	s := make(map[rune]int, len(pattern))
	for i, c := range pattern {
		s[c] |= 1 << (len(pattern) - i - 1)
	}
	return s
}
