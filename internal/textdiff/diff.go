// Package textdiff computes, cleans up, serializes, and applies
// character-level edit scripts between two texts. It provides:
//   - Diff computation with a wall-clock budget (Engine.Diff, Engine.Bisect)
//   - Edit-script normalization passes (CleanupMerge, CleanupSemantic,
//     CleanupSemanticLossless, Engine.CleanupEfficiency)
//   - A compact tab-separated delta form (ToDelta, FromDelta)
//   - Fuzzy location of a pattern near an expected offset (Engine.Match)
//   - Relocatable context patches with fuzzy application
//     (Engine.MakePatches, Engine.ApplyPatches, PatchesToText, PatchesFromText)
//
// Conventions:
//   - All positions and lengths are counted in runes, not bytes.
//   - Edit scripts transform text1 (equalities + deletions) into text2
//     (equalities + insertions).
//   - Degradations under the time budget are quality reductions, not errors.
package textdiff

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Op identifies one kind of edit operation.
type Op int8

const (
	OpDelete Op = -1
	OpEqual  Op = 0
	OpInsert Op = 1
)

// String returns a short human-readable name for the operation.
func (op Op) String() string {
	switch op {
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return "equal"
	}
}

// Edit is one operation of an edit script, carrying the affected text.
type Edit struct {
	Op   Op
	Text string
}

// Engine holds the tunables shared by the diff, match, and patch operations.
// The zero value is not useful; construct with NewEngine.
type Engine struct {
	// DiffTimeout bounds the time spent computing a diff. A value <= 0
	// removes the bound and also disables the half-match heuristic, so the
	// diff insists on optimality.
	DiffTimeout time.Duration
	// DiffEditCost is the cost of an empty edit operation, in characters.
	// Used by CleanupEfficiency.
	DiffEditCost int
	// MatchThreshold is the score above which a fuzzy match is rejected
	// (0.0 = perfection, 1.0 = very loose).
	MatchThreshold float64
	// MatchDistance is how far from the expected location a match may stray
	// before its proximity alone contributes 1.0 to the score.
	MatchDistance int
	// MatchMaxBits is the hard pattern-length ceiling of the bit-parallel
	// matcher. Patches longer than this are split before application.
	MatchMaxBits int
	// PatchDeleteThreshold controls how closely the contents of a large
	// deletion have to match the expected contents during fuzzy apply.
	PatchDeleteThreshold float64
	// PatchMargin is the chunk size of context added around patches.
	PatchMargin int
}

// NewEngine returns an Engine with the default tunables.
func NewEngine() *Engine {
	return &Engine{
		DiffTimeout:          time.Second,
		DiffEditCost:         4,
		MatchThreshold:       0.5,
		MatchDistance:        1000,
		MatchMaxBits:         32,
		PatchDeleteThreshold: 0.5,
		PatchMargin:          4,
	}
}

// Diff computes the edit script that transforms text1 into text2.
//
// When checklines is true and both texts are large, a faster line-level
// pre-pass is run first; the result is slightly less optimal. The time
// budget is taken from DiffTimeout; on expiry the remaining region degrades
// to a delete+insert pair.
func (e *Engine) Diff(text1, text2 string, checklines bool) []Edit {
	var deadline time.Time
	if e.DiffTimeout > 0 {
		deadline = time.Now().Add(e.DiffTimeout)
	}
	return e.diffMain([]rune(text1), []rune(text2), checklines, deadline)
}

func (e *Engine) diffMain(text1, text2 []rune, checklines bool, deadline time.Time) []Edit {
	if runesEqual(text1, text2) {
		if len(text1) != 0 {
			return []Edit{{OpEqual, string(text1)}}
		}
		return nil
	}

	// Trim the common prefix and suffix; they bracket the real work.
	n := commonPrefix(text1, text2)
	prefix := text1[:n]
	text1 = text1[n:]
	text2 = text2[n:]

	n = commonSuffix(text1, text2)
	suffix := text1[len(text1)-n:]
	text1 = text1[:len(text1)-n]
	text2 = text2[:len(text2)-n]

	edits := e.diffCompute(text1, text2, checklines, deadline)

	if len(prefix) != 0 {
		edits = append([]Edit{{OpEqual, string(prefix)}}, edits...)
	}
	if len(suffix) != 0 {
		edits = append(edits, Edit{OpEqual, string(suffix)})
	}
	return CleanupMerge(edits)
}

// diffCompute assumes text1 and text2 share no common prefix or suffix.
func (e *Engine) diffCompute(text1, text2 []rune, checklines bool, deadline time.Time) []Edit {
	if len(text1) == 0 {
		return []Edit{{OpInsert, string(text2)}}
	}
	if len(text2) == 0 {
		return []Edit{{OpDelete, string(text1)}}
	}

	long, short := text1, text2
	op := OpDelete
	if len(text1) <= len(text2) {
		long, short = text2, text1
		op = OpInsert
	}
	if i := runesIndex(long, short, 0); i != -1 {
		// The shorter text sits inside the longer one.
		return []Edit{
			{op, string(long[:i])},
			{OpEqual, string(short)},
			{op, string(long[i+len(short):])},
		}
	}
	if len(short) == 1 {
		// After the substring check the single character cannot be an
		// equality.
		return []Edit{{OpDelete, string(text1)}, {OpInsert, string(text2)}}
	}

	if hm := e.halfMatch(text1, text2); hm != nil {
		editsA := e.diffMain(hm[0], hm[2], checklines, deadline)
		editsB := e.diffMain(hm[1], hm[3], checklines, deadline)
		edits := append(editsA, Edit{OpEqual, string(hm[4])})
		return append(edits, editsB...)
	}

	if checklines && len(text1) > 100 && len(text2) > 100 {
		return e.diffLineMode(text1, text2, deadline)
	}
	return e.bisect(text1, text2, deadline)
}

// diffLineMode runs a quick line-level diff, then re-diffs the replacement
// blocks character by character.
func (e *Engine) diffLineMode(text1, text2 []rune, deadline time.Time) []Edit {
	chars1, chars2, lines := linesToRunes(string(text1), string(text2))

	edits := e.diffMain(chars1, chars2, false, deadline)
	edits = runesToLines(edits, lines)
	edits = CleanupSemantic(edits)

	// Walk the script re-diffing each adjacent delete+insert pair.
	edits = append(edits, Edit{OpEqual, ""})
	pointer := 0
	countDelete, countInsert := 0, 0
	textDelete, textInsert := "", ""
	for pointer < len(edits) {
		switch edits[pointer].Op {
		case OpInsert:
			countInsert++
			textInsert += edits[pointer].Text
		case OpDelete:
			countDelete++
			textDelete += edits[pointer].Text
		case OpEqual:
			if countDelete >= 1 && countInsert >= 1 {
				sub := e.diffMain([]rune(textDelete), []rune(textInsert), false, deadline)
				edits = splice(edits, pointer-countDelete-countInsert, countDelete+countInsert, sub...)
				pointer = pointer - countDelete - countInsert + len(sub)
			}
			countDelete, countInsert = 0, 0
			textDelete, textInsert = "", ""
		}
		pointer++
	}
	return edits[:len(edits)-1] // drop the sentinel
}

// Bisect finds the middle snake of the diff per Myers' O(ND) algorithm,
// splits the problem at it, and recurses. When the deadline passes, the
// remaining region degrades to a delete+insert pair. Exposed for tests and
// callers that manage their own deadline.
func (e *Engine) Bisect(text1, text2 string, deadline time.Time) []Edit {
	return e.bisect([]rune(text1), []rune(text2), deadline)
}

func (e *Engine) bisect(runes1, runes2 []rune, deadline time.Time) []Edit {
	len1, len2 := len(runes1), len(runes2)
	maxD := (len1 + len2 + 1) / 2
	vOffset := maxD
	vLength := 2 * maxD
	v1 := make([]int, vLength)
	v2 := make([]int, vLength)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[vOffset+1] = 0
	v2[vOffset+1] = 0

	delta := len1 - len2
	// With an odd total length the forward path collides with the reverse
	// path; with an even one the reverse path detects the overlap.
	front := delta%2 != 0
	k1start, k1end := 0, 0
	k2start, k2end := 0, 0
	for d := 0; d < maxD; d++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		// Walk the front path one step.
		for k1 := -d + k1start; k1 <= d-k1end; k1 += 2 {
			k1Offset := vOffset + k1
			var x1 int
			if k1 == -d || (k1 != d && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < len1 && y1 < len2 && runes1[x1] == runes2[y1] {
				x1++
				y1++
			}
			v1[k1Offset] = x1
			switch {
			case x1 > len1:
				k1end += 2 // ran off the right of the grid
			case y1 > len2:
				k1start += 2 // ran off the bottom of the grid
			case front:
				k2Offset := vOffset + delta - k1
				if k2Offset >= 0 && k2Offset < vLength && v2[k2Offset] != -1 {
					// Mirror x2 onto the top-left coordinate system.
					x2 := len1 - v2[k2Offset]
					if x1 >= x2 {
						return e.bisectSplit(runes1, runes2, x1, y1, deadline)
					}
				}
			}
		}

		// Walk the reverse path one step.
		for k2 := -d + k2start; k2 <= d-k2end; k2 += 2 {
			k2Offset := vOffset + k2
			var x2 int
			if k2 == -d || (k2 != d && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < len1 && y2 < len2 && runes1[len1-x2-1] == runes2[len2-y2-1] {
				x2++
				y2++
			}
			v2[k2Offset] = x2
			switch {
			case x2 > len1:
				k2end += 2
			case y2 > len2:
				k2start += 2
			case !front:
				k1Offset := vOffset + delta - k2
				if k1Offset >= 0 && k1Offset < vLength && v1[k1Offset] != -1 {
					x1 := v1[k1Offset]
					y1 := vOffset + x1 - k1Offset
					x2 = len1 - x2
					if x1 >= x2 {
						return e.bisectSplit(runes1, runes2, x1, y1, deadline)
					}
				}
			}
		}
	}
	// Hit the deadline, or the texts share nothing at all.
	return []Edit{{OpDelete, string(runes1)}, {OpInsert, string(runes2)}}
}

func (e *Engine) bisectSplit(runes1, runes2 []rune, x, y int, deadline time.Time) []Edit {
	edits := e.diffMain(runes1[:x], runes2[:y], false, deadline)
	editsB := e.diffMain(runes1[x:], runes2[y:], false, deadline)
	return append(edits, editsB...)
}

// halfMatch reports whether the two texts share a substring at least half
// the length of the longer text. The five returned slices are the prefix of
// text1, the suffix of text1, the prefix of text2, the suffix of text2, and
// the common middle; nil when no such split exists. Disabled when the time
// budget is unbounded, since the split can produce non-minimal diffs.
func (e *Engine) halfMatch(text1, text2 []rune) [][]rune {
	if e.DiffTimeout <= 0 {
		return nil
	}
	long, short := text1, text2
	if len(text1) <= len(text2) {
		long, short = text2, text1
	}
	if len(long) < 4 || len(short)*2 < len(long) {
		return nil
	}

	// Seed on the second quarter, then on the third.
	hm1 := halfMatchI(long, short, (len(long)+3)/4)
	hm2 := halfMatchI(long, short, (len(long)+1)/2)
	var hm [][]rune
	switch {
	case hm1 == nil && hm2 == nil:
		return nil
	case hm2 == nil:
		hm = hm1
	case hm1 == nil:
		hm = hm2
	case len(hm1[4]) > len(hm2[4]):
		hm = hm1
	default:
		hm = hm2
	}

	if len(text1) > len(text2) {
		return hm
	}
	return [][]rune{hm[2], hm[3], hm[0], hm[1], hm[4]}
}

// halfMatchI checks whether a substring of short, seeded at position i of
// long, extends to a common substring at least half the length of long.
func halfMatchI(long, short []rune, i int) [][]rune {
	seed := long[i : i+len(long)/4]
	var bestCommon, bestLongA, bestLongB, bestShortA, bestShortB []rune
	for j := runesIndex(short, seed, 0); j != -1; j = runesIndex(short, seed, j+1) {
		prefixLength := commonPrefix(long[i:], short[j:])
		suffixLength := commonSuffix(long[:i], short[:j])
		if len(bestCommon) < suffixLength+prefixLength {
			bestCommon = concatRunes(short[j-suffixLength:j], short[j:j+prefixLength])
			bestLongA = long[:i-suffixLength]
			bestLongB = long[i+prefixLength:]
			bestShortA = short[:j-suffixLength]
			bestShortB = short[j+prefixLength:]
		}
	}
	if len(bestCommon)*2 < len(long) {
		return nil
	}
	return [][]rune{bestLongA, bestLongB, bestShortA, bestShortB, bestCommon}
}

// commonPrefix returns the number of runes common to the start of both texts.
func commonPrefix(text1, text2 []rune) int {
	n := min(len(text1), len(text2))
	for i := 0; i < n; i++ {
		if text1[i] != text2[i] {
			return i
		}
	}
	return n
}

// commonSuffix returns the number of runes common to the end of both texts.
func commonSuffix(text1, text2 []rune) int {
	n := min(len(text1), len(text2))
	for i := 1; i <= n; i++ {
		if text1[len(text1)-i] != text2[len(text2)-i] {
			return i - 1
		}
	}
	return n
}

// commonOverlap returns the number of runes in which the end of text1
// overlaps the start of text2.
func commonOverlap(text1, text2 []rune) int {
	len1, len2 := len(text1), len(text2)
	if len1 == 0 || len2 == 0 {
		return 0
	}
	// Truncate the longer side.
	if len1 > len2 {
		text1 = text1[len1-len2:]
	} else if len1 < len2 {
		text2 = text2[:len1]
	}
	textLength := min(len1, len2)
	if runesEqual(text1, text2) {
		return textLength
	}

	// Grow a single-character match until no longer match is found.
	best, length := 0, 1
	for {
		pattern := text1[textLength-length:]
		found := runesIndex(text2, pattern, 0)
		if found == -1 {
			return best
		}
		length += found
		if found == 0 || runesEqual(text1[textLength-length:], text2[:length]) {
			best = length
			length++
		}
	}
}

// Line tokenization maps each distinct line to a rune code point so a
// character diff over the coded strings is a line diff over the originals.
// Index 0 is intentionally blank, and the surrogate range is skipped so the
// coded runes survive string round-trips.
const (
	surrogateMin = 0xD800
	surrogateMax = 0xE000
)

func linesToRunes(text1, text2 string) (chars1, chars2 []rune, lines []string) {
	lines = []string{""}
	lineHash := map[string]int{}
	chars1 = linesToRunesMunge(text1, &lines, lineHash)
	chars2 = linesToRunesMunge(text2, &lines, lineHash)
	return chars1, chars2, lines
}

func linesToRunesMunge(text string, lines *[]string, lineHash map[string]int) []rune {
	var runes []rune
	lineStart := 0
	lineEnd := -1
	// Walk the text pulling out one line (newline inclusive) at a time.
	for lineEnd < len(text)-1 {
		if idx := strings.IndexByte(text[lineStart:], '\n'); idx == -1 {
			lineEnd = len(text) - 1
		} else {
			lineEnd = lineStart + idx
		}
		line := text[lineStart : lineEnd+1]
		lineStart = lineEnd + 1

		if v, ok := lineHash[line]; ok {
			runes = append(runes, rune(v))
			continue
		}
		if len(*lines) == surrogateMin {
			// Jump the surrogate range; those code points cannot live in a
			// Go string.
			for len(*lines) < surrogateMax {
				*lines = append(*lines, "")
			}
		}
		*lines = append(*lines, line)
		lineHash[line] = len(*lines) - 1
		runes = append(runes, rune(len(*lines)-1))
	}
	return runes
}

// runesToLines rehydrates line-coded edits back to real text.
func runesToLines(edits []Edit, lines []string) []Edit {
	out := make([]Edit, 0, len(edits))
	for _, ed := range edits {
		var b strings.Builder
		for _, r := range ed.Text {
			b.WriteString(lines[int(r)])
		}
		out = append(out, Edit{ed.Op, b.String()})
	}
	return out
}

// ----- rune slice helpers -----

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runesIndex returns the first index >= start at which sep begins in s, or -1.
func runesIndex(s, sep []rune, start int) int {
	if start < 0 {
		start = 0
	}
	if len(sep) == 0 {
		if start > len(s) {
			return -1
		}
		return start
	}
	for i := start; i+len(sep) <= len(s); i++ {
		if runesEqual(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}

// runesLastIndex returns the last index <= from at which sep begins in s, or -1.
func runesLastIndex(s, sep []rune, from int) int {
	if from > len(s)-len(sep) {
		from = len(s) - len(sep)
	}
	if len(sep) == 0 {
		if from < 0 {
			return -1
		}
		return from
	}
	for i := from; i >= 0; i-- {
		if runesEqual(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}

func concatRunes(parts ...[]rune) []rune {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]rune, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
