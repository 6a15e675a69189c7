package store

import (
	"github.com/dustin/go-humanize"

	"revstore/internal/textdiff"
)

// nearestRange bounds how many subsequent revisions the optimization pass
// considers as delta targets for each entry.
const nearestRange = 12

// Optimize is an offline pass over the whole graph: each revision is
// rewritten as a reverse delta keyed on whichever of the next
// nearestRange-1 revisions (in insertion order) yields the smallest
// snapshot strictly smaller than the current one. Rewrites never break
// reachability: a candidate whose target cannot resolve, or whose chain
// would loop back through the revision itself, is skipped.
func (r *Repository[T]) Optimize() {
	for i, rev := range r.history {
		cur := r.snaps[rev]
		curText, err := r.resolveText(rev)
		if err != nil {
			r.log.Warn().Err(err).Str("revision", rev).Msg("skipping unresolvable revision")
			continue
		}
		var best *deltaSnapshot
		limit := min(len(r.history), i+nearestRange)
		for j := i + 1; j < limit; j++ {
			targetRev := r.history[j]
			if targetRev == rev || r.chainContains(targetRev, rev) {
				continue
			}
			targetText, err := r.resolveText(targetRev)
			if err != nil {
				continue
			}
			patches := r.eng.MakePatches(targetText, curText)
			blob := r.comp.Compress(textdiff.PatchesToText(patches))
			cand := &deltaSnapshot{rev: rev, at: cur.created(), futureRev: targetRev, blob: blob}
			if cand.size() < cur.size() && (best == nil || cand.size() < best.size()) {
				best = cand
			}
		}
		if best != nil {
			r.log.Debug().
				Str("revision", rev).
				Str("target", best.futureRev).
				Str("gain", humanize.Bytes(uint64(cur.size()-best.size()))).
				Msg("optimized snapshot")
			r.snaps[rev] = best
		}
	}
}

// chainContains reports whether the delta chain starting at start passes
// through needle. Missing links count as containment so callers reject the
// candidate.
func (r *Repository[T]) chainContains(start, needle string) bool {
	seen := map[string]bool{}
	for rev := start; ; {
		if rev == needle || seen[rev] {
			return true
		}
		seen[rev] = true
		snap, ok := r.snaps[rev]
		if !ok {
			return true
		}
		d, isDelta := snap.(*deltaSnapshot)
		if !isDelta {
			return false
		}
		rev = d.futureRev
	}
}
