// Package diffview renders human-readable unified line diffs between two
// revisions of a store's text. It uses github.com/pmezard/go-difflib to
// produce classic unified output (---/+++ headers, @@ hunks, lines prefixed
// with ' ', '-', '+'). This is a presentation surface only; the portable
// patch format of the engine is unrelated.
package diffview

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// Options controls rendering.
type Options struct {
	// Context is the number of context lines per hunk. If 0, defaults to 3.
	Context int
	// MaxBytes is a guardrail on input size (old+new). When exceeded, a
	// placeholder body is returned and oversize=true. 0 means no limit.
	MaxBytes int
}

// Unified renders a classic unified diff of a -> b, labeling the sides with
// the given revision names. Returns the body and a flag indicating the diff
// was omitted due to size.
func Unified(aName, bName, a, b string, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		// Identical revisions produce an empty diff; keep the header so the
		// caller always has something to print.
		return omitted(aName, bName), false
	}
	return s, false
}

// splitLinesKeepNL splits into lines keeping the newline characters, which
// produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

// omitted returns a compact placeholder body.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n", aName, bName)
}
