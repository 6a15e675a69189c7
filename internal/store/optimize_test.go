package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeNeverGrowsStore(t *testing.T) {
	r := newStringRepo()
	base := strings.Repeat("alpha beta gamma delta epsilon\n", 30)
	texts := []string{base}
	for i := 0; i < 6; i++ {
		base = strings.Replace(base, "alpha", "ALPHA", 1) + "tail\n"
		texts = append(texts, base)
	}
	for _, s := range texts {
		snap(t, r, s)
	}

	before := r.Size()
	r.Optimize()
	assert.LessOrEqual(t, r.Size(), before)

	// Every revision still restores to its original text.
	for i, rev := range r.History() {
		got, err := r.Restore(rev)
		require.NoError(t, err)
		assert.Equal(t, texts[i], got)
	}
}

func TestOptimizeFindsBetterTargets(t *testing.T) {
	// A revision nearly identical to a revision two steps ahead compresses
	// better against it than against its immediate successor.
	r := newStringRepo()
	big := strings.Repeat("0123456789abcdef\n", 40)
	texts := []string{
		big,
		"completely different short text",
		big + "x",
	}
	for _, s := range texts {
		snap(t, r, s)
	}

	r.Optimize()

	for i, rev := range r.History() {
		got, err := r.Restore(rev)
		require.NoError(t, err)
		assert.Equal(t, texts[i], got)
	}
	// The first revision should now be far smaller than its full text.
	first := r.History()[0]
	assert.Less(t, r.snaps[first].size(), len(big)/2)
}

func TestOptimizeKeepsLastComplete(t *testing.T) {
	r := newStringRepo()
	for _, s := range []string{"aaa bbb ccc", "aaa bbb ccc ddd", "aaa ccc ddd"} {
		snap(t, r, s)
	}
	r.Optimize()
	last := r.History()[len(r.History())-1]
	_, isComplete := r.snaps[last].(*completeSnapshot)
	assert.True(t, isComplete, "newest revision has no forward target and must stay complete")
}

func TestOptimizeIdempotentResolution(t *testing.T) {
	r := newStringRepo()
	texts := []string{"one", "one two", "one two three", "two three"}
	for _, s := range texts {
		snap(t, r, s)
	}
	r.Optimize()
	r.Optimize()
	for i, rev := range r.History() {
		got, err := r.Restore(rev)
		require.NoError(t, err)
		assert.Equal(t, texts[i], got)
	}
}

func TestOptimizeWithDuplicateRevisions(t *testing.T) {
	r := newStringRepo()
	texts := []string{"ping", "pong", "ping", "pong ping"}
	for _, s := range texts {
		snap(t, r, s)
	}
	r.Optimize()
	for i, rev := range r.History() {
		got, err := r.Restore(rev)
		require.NoError(t, err)
		assert.Equal(t, texts[i], got)
	}
}
