package textdiff

import (
	"time"
	"unicode/utf8"
)

// Patch is a localized edit script with surrounding context and source and
// destination offsets, designed to be re-applied to a drifted text.
// Offsets and lengths are counted in runes; Length1/Length2 cover the
// text1/text2 sides of Edits.
type Patch struct {
	Edits   []Edit
	Start1  int
	Start2  int
	Length1 int
	Length2 int
}

// MakePatches computes the patch list that turns text1 into text2. The
// underlying edit script is cleaned up semantically and for efficiency
// before patches are cut.
func (e *Engine) MakePatches(text1, text2 string) []Patch {
	edits := e.Diff(text1, text2, true)
	if len(edits) > 2 {
		edits = CleanupSemantic(edits)
		edits = e.CleanupEfficiency(edits)
	}
	return e.MakePatchesFromEdits(text1, edits)
}

// MakePatchesFromEdits cuts an existing edit script over text1 into
// patches. Unlike unidiff, the patch list carries a rolling context: each
// patch's coordinates assume all previous patches have been applied.
func (e *Engine) MakePatchesFromEdits(text1 string, edits []Edit) []Patch {
	var patches []Patch
	if len(edits) == 0 {
		return patches
	}
	var patch Patch
	charCount1, charCount2 := 0, 0
	prepatch := []rune(text1)
	postpatch := append([]rune(nil), prepatch...)
	for i, ed := range edits {
		n := utf8.RuneCountInString(ed.Text)
		if len(patch.Edits) == 0 && ed.Op != OpEqual {
			// A new patch starts here.
			patch.Start1 = charCount1
			patch.Start2 = charCount2
		}
		switch ed.Op {
		case OpInsert:
			patch.Edits = append(patch.Edits, ed)
			patch.Length2 += n
			postpatch = runesInsert(postpatch, charCount2, []rune(ed.Text))
		case OpDelete:
			patch.Length1 += n
			patch.Edits = append(patch.Edits, ed)
			postpatch = runesCut(postpatch, charCount2, charCount2+n)
		case OpEqual:
			if n <= 2*e.PatchMargin && len(patch.Edits) != 0 && i != len(edits)-1 {
				// Small equality inside a patch.
				patch.Edits = append(patch.Edits, ed)
				patch.Length1 += n
				patch.Length2 += n
			}
			if n >= 2*e.PatchMargin && len(patch.Edits) != 0 {
				// Time for a new patch.
				e.patchAddContext(&patch, prepatch)
				patches = append(patches, patch)
				patch = Patch{}
				// Roll the context forward: the prepatch text reflects the
				// application of all completed patches.
				prepatch = append([]rune(nil), postpatch...)
				charCount1 = charCount2
			}
		}
		if ed.Op != OpInsert {
			charCount1 += n
		}
		if ed.Op != OpDelete {
			charCount2 += n
		}
	}
	// Pick up the leftover patch if not empty.
	if len(patch.Edits) != 0 {
		e.patchAddContext(&patch, prepatch)
		patches = append(patches, patch)
	}
	return patches
}

// patchAddContext grows the patch's context until its pattern is unique in
// text, without letting it expand beyond MatchMaxBits, then brackets the
// patch with leading and trailing equalities.
func (e *Engine) patchAddContext(patch *Patch, text []rune) {
	if len(text) == 0 {
		return
	}
	pattern := text[patch.Start2 : patch.Start2+patch.Length1]
	padding := 0

	// Grow while the pattern occurs more than once.
	for runesIndex(text, pattern, 0) != runesLastIndex(text, pattern, len(text)) &&
		len(pattern) < e.MatchMaxBits-2*e.PatchMargin {
		padding += e.PatchMargin
		pattern = text[max(0, patch.Start2-padding):min(len(text), patch.Start2+patch.Length1+padding)]
	}
	// One more chunk for luck.
	padding += e.PatchMargin

	prefix := text[max(0, patch.Start2-padding):patch.Start2]
	if len(prefix) != 0 {
		patch.Edits = append([]Edit{{OpEqual, string(prefix)}}, patch.Edits...)
	}
	suffix := text[patch.Start2+patch.Length1 : min(len(text), patch.Start2+patch.Length1+padding)]
	if len(suffix) != 0 {
		patch.Edits = append(patch.Edits, Edit{OpEqual, string(suffix)})
	}

	patch.Start1 -= len(prefix)
	patch.Start2 -= len(prefix)
	patch.Length1 += len(prefix) + len(suffix)
	patch.Length2 += len(prefix) + len(suffix)
}

// DeepCopy returns a structural clone of a patch list.
func DeepCopy(patches []Patch) []Patch {
	out := make([]Patch, 0, len(patches))
	for _, p := range patches {
		c := Patch{
			Edits:   append([]Edit(nil), p.Edits...),
			Start1:  p.Start1,
			Start2:  p.Start2,
			Length1: p.Length1,
			Length2: p.Length2,
		}
		out = append(out, c)
	}
	return out
}

// ApplyPatches merges a patch list onto text, fuzzily relocating each patch
// with Match. It returns the patched text and a per-patch success vector.
// The input patches are not modified.
func (e *Engine) ApplyPatches(patches []Patch, text string) (string, []bool) {
	if len(patches) == 0 {
		return text, []bool{}
	}
	patches = DeepCopy(patches)

	nullPadding := []rune(e.AddPadding(patches))
	textR := concatRunes(nullPadding, []rune(text), nullPadding)
	patches = e.SplitMax(patches)

	// delta tracks the offset between the expected and actual location of
	// the previous patch. If patches are expected at 10 and 20 but the
	// first lands at 12, delta is 2 and the second's effective expected
	// position is 22.
	delta := 0
	results := make([]bool, len(patches))
	for x, patch := range patches {
		expectedLoc := patch.Start2 + delta
		needle := []rune(Text1(patch.Edits))
		var startLoc int
		endLoc := -1
		if len(needle) > e.MatchMaxBits {
			// SplitMax only leaves an oversized pattern for a monster
			// delete: locate its head and tail separately.
			startLoc = e.matchRunes(textR, needle[:e.MatchMaxBits], expectedLoc)
			if startLoc != -1 {
				endLoc = e.matchRunes(textR, needle[len(needle)-e.MatchMaxBits:],
					expectedLoc+len(needle)-e.MatchMaxBits)
				if endLoc == -1 || startLoc >= endLoc {
					// No valid trailing context; drop this patch.
					startLoc = -1
				}
			}
		} else {
			startLoc = e.matchRunes(textR, needle, expectedLoc)
		}
		if startLoc == -1 {
			results[x] = false
			// Subtract the delta for this failed patch from subsequent ones.
			delta -= patch.Length2 - patch.Length1
			continue
		}
		results[x] = true
		delta = startLoc - expectedLoc
		var found []rune
		if endLoc == -1 {
			found = textR[startLoc:min(startLoc+len(needle), len(textR))]
		} else {
			found = textR[startLoc:min(endLoc+e.MatchMaxBits, len(textR))]
		}
		if runesEqual(needle, found) {
			// Perfect match; shove the replacement text in.
			textR = concatRunes(textR[:startLoc], []rune(Text2(patch.Edits)), textR[startLoc+len(needle):])
			continue
		}
		// Imperfect match. Diff the needle against what was found to get a
		// framework of equivalent indices.
		inner := e.diffMain(needle, found, false, time.Time{})
		if len(needle) > e.MatchMaxBits &&
			float64(Levenshtein(inner))/float64(len(needle)) > e.PatchDeleteThreshold {
			// The end points match but the content is unacceptably bad.
			results[x] = false
			continue
		}
		inner = CleanupSemanticLossless(inner)
		index1 := 0
		for _, ed := range patch.Edits {
			if ed.Op != OpEqual {
				index2 := XIndex(inner, index1)
				switch ed.Op {
				case OpInsert:
					textR = runesInsert(textR, startLoc+index2, []rune(ed.Text))
				case OpDelete:
					textR = runesCut(textR, startLoc+index2,
						startLoc+XIndex(inner, index1+runeCount(ed.Text)))
				}
			}
			if ed.Op != OpDelete {
				index1 += runeCount(ed.Text)
			}
		}
	}
	// Strip the padding.
	textR = textR[len(nullPadding) : len(textR)-len(nullPadding)]
	return string(textR), results
}

// AddPadding pads the patch list's edges with synthetic low-code-point
// equalities so that edge patches can still match. The caller is expected
// to bracket the subject text with the returned padding before matching.
func (e *Engine) AddPadding(patches []Patch) string {
	paddingLength := e.PatchMargin
	nullPadding := make([]rune, 0, paddingLength)
	for x := 1; x <= paddingLength; x++ {
		nullPadding = append(nullPadding, rune(x))
	}

	// Bump all the patches forward.
	for i := range patches {
		patches[i].Start1 += paddingLength
		patches[i].Start2 += paddingLength
	}

	// Pad the start of the first patch.
	first := &patches[0]
	if len(first.Edits) == 0 || first.Edits[0].Op != OpEqual {
		first.Edits = append([]Edit{{OpEqual, string(nullPadding)}}, first.Edits...)
		first.Start1 -= paddingLength // now 0
		first.Start2 -= paddingLength
		first.Length1 += paddingLength
		first.Length2 += paddingLength
	} else if n := runeCount(first.Edits[0].Text); paddingLength > n {
		// Grow the first equality.
		extra := paddingLength - n
		first.Edits[0].Text = string(nullPadding[n:]) + first.Edits[0].Text
		first.Start1 -= extra
		first.Start2 -= extra
		first.Length1 += extra
		first.Length2 += extra
	}

	// Pad the end of the last patch.
	last := &patches[len(patches)-1]
	if len(last.Edits) == 0 || last.Edits[len(last.Edits)-1].Op != OpEqual {
		last.Edits = append(last.Edits, Edit{OpEqual, string(nullPadding)})
		last.Length1 += paddingLength
		last.Length2 += paddingLength
	} else if n := runeCount(last.Edits[len(last.Edits)-1].Text); paddingLength > n {
		extra := paddingLength - n
		last.Edits[len(last.Edits)-1].Text += string(nullPadding[:extra])
		last.Length1 += extra
		last.Length2 += extra
	}

	return string(nullPadding)
}

// SplitMax breaks up any patch whose text1 side is longer than
// MatchMaxBits into smaller pieces that carry PatchMargin of rolling
// context. A leading deletion longer than twice the ceiling passes through
// as a single oversized chunk; ApplyPatches locates its endpoints
// separately.
func (e *Engine) SplitMax(patches []Patch) []Patch {
	patchSize := e.MatchMaxBits
	for x := 0; x < len(patches); x++ {
		if patches[x].Length1 <= patchSize {
			continue
		}
		bigPatch := patches[x]
		// Remove the big old patch; pieces are inserted in its place.
		patches = patchSplice(patches, x, 1)
		x--
		start1 := bigPatch.Start1
		start2 := bigPatch.Start2
		var precontext []rune
		for len(bigPatch.Edits) != 0 {
			// Create one of several smaller patches.
			var patch Patch
			empty := true
			patch.Start1 = start1 - len(precontext)
			patch.Start2 = start2 - len(precontext)
			if len(precontext) != 0 {
				patch.Length1 = len(precontext)
				patch.Length2 = len(precontext)
				patch.Edits = append(patch.Edits, Edit{OpEqual, string(precontext)})
			}
			for len(bigPatch.Edits) != 0 && patch.Length1 < patchSize-e.PatchMargin {
				op := bigPatch.Edits[0].Op
				text := []rune(bigPatch.Edits[0].Text)
				switch {
				case op == OpInsert:
					// Insertions are harmless.
					patch.Length2 += len(text)
					start2 += len(text)
					patch.Edits = append(patch.Edits, bigPatch.Edits[0])
					bigPatch.Edits = bigPatch.Edits[1:]
					empty = false
				case op == OpDelete && len(patch.Edits) == 1 &&
					patch.Edits[0].Op == OpEqual && len(text) > 2*patchSize:
					// A monster delete: let it pass in one chunk.
					patch.Length1 += len(text)
					start1 += len(text)
					empty = false
					patch.Edits = append(patch.Edits, Edit{op, string(text)})
					bigPatch.Edits = bigPatch.Edits[1:]
				default:
					// Deletion or equality; take only as much as fits.
					text = text[:min(len(text), patchSize-patch.Length1-e.PatchMargin)]
					patch.Length1 += len(text)
					start1 += len(text)
					if op == OpEqual {
						patch.Length2 += len(text)
						start2 += len(text)
					} else {
						empty = false
					}
					patch.Edits = append(patch.Edits, Edit{op, string(text)})
					if string(text) == bigPatch.Edits[0].Text {
						bigPatch.Edits = bigPatch.Edits[1:]
					} else {
						rest := []rune(bigPatch.Edits[0].Text)
						bigPatch.Edits[0].Text = string(rest[len(text):])
					}
				}
			}
			// Compute the head context for the next patch.
			precontext = []rune(Text2(patch.Edits))
			if len(precontext) > e.PatchMargin {
				precontext = precontext[len(precontext)-e.PatchMargin:]
			}
			// Append the tail context for this patch.
			postcontext := []rune(Text1(bigPatch.Edits))
			if len(postcontext) > e.PatchMargin {
				postcontext = postcontext[:e.PatchMargin]
			}
			if len(postcontext) != 0 {
				patch.Length1 += len(postcontext)
				patch.Length2 += len(postcontext)
				if len(patch.Edits) != 0 && patch.Edits[len(patch.Edits)-1].Op == OpEqual {
					patch.Edits[len(patch.Edits)-1].Text += string(postcontext)
				} else {
					patch.Edits = append(patch.Edits, Edit{OpEqual, string(postcontext)})
				}
			}
			if !empty {
				x++
				patches = patchSplice(patches, x, 0, patch)
			}
		}
	}
	return patches
}

func patchSplice(patches []Patch, index, amount int, elements ...Patch) []Patch {
	out := make([]Patch, 0, len(patches)-amount+len(elements))
	out = append(out, patches[:index]...)
	out = append(out, elements...)
	out = append(out, patches[index+amount:]...)
	return out
}

func runesInsert(s []rune, at int, ins []rune) []rune {
	out := make([]rune, 0, len(s)+len(ins))
	out = append(out, s[:at]...)
	out = append(out, ins...)
	return append(out, s[at:]...)
}

func runesCut(s []rune, from, to int) []rune {
	out := make([]rune, 0, len(s)-(to-from))
	out = append(out, s[:from]...)
	return append(out, s[to:]...)
}
