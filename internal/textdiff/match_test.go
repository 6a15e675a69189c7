package textdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchAlphabet(t *testing.T) {
	assert.Equal(t, map[rune]int{'a': 4, 'b': 2, 'c': 1},
		matchAlphabet([]rune("abc")), "unique")
	assert.Equal(t, map[rune]int{'a': 37, 'b': 18, 'c': 8},
		matchAlphabet([]rune("abcaba")), "duplicates")
}

func TestMatchBitap(t *testing.T) {
	e := NewEngine()
	e.MatchDistance = 100
	e.MatchThreshold = 0.5

	assert.Equal(t, 5, e.matchBitap([]rune("abcdefghijk"), []rune("fgh"), 5), "exact match #1")
	assert.Equal(t, 5, e.matchBitap([]rune("abcdefghijk"), []rune("fgh"), 0), "exact match #2")
	assert.Equal(t, 4, e.matchBitap([]rune("abcdefghijk"), []rune("efxhi"), 0), "fuzzy match #1")
	assert.Equal(t, 2, e.matchBitap([]rune("abcdefghijk"), []rune("cdefxyhijk"), 5), "fuzzy match #2")
	assert.Equal(t, -1, e.matchBitap([]rune("abcdefghijk"), []rune("bxy"), 1), "fuzzy match #3")
	assert.Equal(t, 2, e.matchBitap([]rune("123456789xx0"), []rune("3456789x0"), 2), "overflow")
	assert.Equal(t, 0, e.matchBitap([]rune("abcdef"), []rune("xxabc"), 4), "before start match")
	assert.Equal(t, 3, e.matchBitap([]rune("abcdef"), []rune("defyy"), 4), "beyond end match")
	assert.Equal(t, 0, e.matchBitap([]rune("abcdef"), []rune("xabcdefy"), 0), "oversized pattern")

	e.MatchThreshold = 0.4
	assert.Equal(t, 4, e.matchBitap([]rune("abcdefghijk"), []rune("efxyhi"), 1), "threshold #1")

	e.MatchThreshold = 0.3
	assert.Equal(t, -1, e.matchBitap([]rune("abcdefghijk"), []rune("efxyhi"), 1), "threshold #2")

	e.MatchThreshold = 0.0
	assert.Equal(t, 1, e.matchBitap([]rune("abcdefghijk"), []rune("bcdef"), 1), "threshold #3")

	e.MatchThreshold = 0.5
	assert.Equal(t, 0, e.matchBitap([]rune("abcdexyzabcde"), []rune("abccde"), 3), "multiple select #1")
	assert.Equal(t, 8, e.matchBitap([]rune("abcdexyzabcde"), []rune("abccde"), 5), "multiple select #2")

	e.MatchDistance = 10 // strict location
	assert.Equal(t, -1, e.matchBitap([]rune("abcdefghijklmnopqrstuvwxyz"), []rune("abcdefg"), 24), "distance test #1")
	assert.Equal(t, 0, e.matchBitap([]rune("abcdefghijklmnopqrstuvwxyz"), []rune("abcdxxefg"), 1), "distance test #2")

	e.MatchDistance = 1000 // loose location
	assert.Equal(t, 0, e.matchBitap([]rune("abcdefghijklmnopqrstuvwxyz"), []rune("abcdefg"), 24), "distance test #3")
}

func TestMatchMain(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, 0, e.Match("abcdef", "abcdef", 1000), "equality")
	assert.Equal(t, -1, e.Match("", "abcdef", 1), "empty text")
	assert.Equal(t, 3, e.Match("abcdef", "", 3), "empty pattern")
	assert.Equal(t, 3, e.Match("abcdef", "de", 3), "exact match")
	assert.Equal(t, 3, e.Match("abcdef", "defy", 4), "beyond end match")
	assert.Equal(t, 0, e.Match("abcdef", "abcdefy", 0), "oversized pattern")

	// The empty pattern clamps the location.
	assert.Equal(t, 6, e.Match("abcdef", "", 100), "clamped location")

	e.MatchThreshold = 0.7
	assert.Equal(t, 4, e.Match("I am the very model of a modern major general.", " that berry ", 5),
		"complex match")
}
