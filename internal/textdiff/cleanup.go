package textdiff

import (
	"regexp"
	"strings"
	"unicode"
)

// CleanupMerge reorders and merges like edit sections, factors common
// prefixes and suffixes out of change pairs, and slides single edits across
// neighboring equalities. The pass is idempotent.
func CleanupMerge(edits []Edit) []Edit {
	if len(edits) == 0 {
		return edits
	}
	edits = append(edits, Edit{OpEqual, ""}) // sentinel
	pointer := 0
	countDelete, countInsert := 0, 0
	var textDelete, textInsert []rune
	for pointer < len(edits) {
		switch edits[pointer].Op {
		case OpInsert:
			countInsert++
			textInsert = append(textInsert, []rune(edits[pointer].Text)...)
			pointer++
		case OpDelete:
			countDelete++
			textDelete = append(textDelete, []rune(edits[pointer].Text)...)
			pointer++
		case OpEqual:
			if countDelete+countInsert > 1 {
				if countDelete != 0 && countInsert != 0 {
					// Factor out any common prefix.
					if n := commonPrefix(textInsert, textDelete); n != 0 {
						x := pointer - countDelete - countInsert
						if x > 0 && edits[x-1].Op == OpEqual {
							edits[x-1].Text += string(textInsert[:n])
						} else {
							edits = splice(edits, 0, 0, Edit{OpEqual, string(textInsert[:n])})
							pointer++
						}
						textInsert = textInsert[n:]
						textDelete = textDelete[n:]
					}
					// Factor out any common suffix.
					if n := commonSuffix(textInsert, textDelete); n != 0 {
						edits[pointer].Text = string(textInsert[len(textInsert)-n:]) + edits[pointer].Text
						textInsert = textInsert[:len(textInsert)-n]
						textDelete = textDelete[:len(textDelete)-n]
					}
				}
				// Replace the run with the merged records.
				pointer -= countDelete + countInsert
				edits = splice(edits, pointer, countDelete+countInsert)
				if len(textDelete) != 0 {
					edits = splice(edits, pointer, 0, Edit{OpDelete, string(textDelete)})
					pointer++
				}
				if len(textInsert) != 0 {
					edits = splice(edits, pointer, 0, Edit{OpInsert, string(textInsert)})
					pointer++
				}
				pointer++
			} else if pointer != 0 && edits[pointer-1].Op == OpEqual {
				// Merge this equality with the previous one.
				edits[pointer-1].Text += edits[pointer].Text
				edits = splice(edits, pointer, 1)
			} else {
				pointer++
			}
			countDelete, countInsert = 0, 0
			textDelete, textInsert = nil, nil
		}
	}
	if edits[len(edits)-1].Text == "" {
		edits = edits[:len(edits)-1] // drop the sentinel
	}

	// Second pass: slide single edits surrounded on both sides by
	// equalities to eliminate an equality.
	// e.g: A<ins>BA</ins>C -> <ins>AB</ins>AC
	changes := false
	pointer = 1
	for pointer < len(edits)-1 {
		if edits[pointer-1].Op == OpEqual && edits[pointer+1].Op == OpEqual {
			prev := edits[pointer-1].Text
			cur := edits[pointer].Text
			next := edits[pointer+1].Text
			if strings.HasSuffix(cur, prev) {
				// Shift the edit over the previous equality.
				edits[pointer].Text = prev + cur[:len(cur)-len(prev)]
				edits[pointer+1].Text = prev + next
				edits = splice(edits, pointer-1, 1)
				changes = true
			} else if strings.HasPrefix(cur, next) {
				// Shift the edit over the next equality.
				edits[pointer-1].Text = prev + next
				edits[pointer].Text = cur[len(next):] + next
				edits = splice(edits, pointer+1, 1)
				changes = true
			}
		}
		pointer++
	}
	if changes {
		edits = CleanupMerge(edits)
	}
	return edits
}

// CleanupSemantic eliminates semantically trivial equalities: an equality
// flanked on both sides by at least as much edit mass is folded into the
// surrounding changes. Afterwards boundaries are aligned
// (CleanupSemanticLossless) and overlaps between adjacent deletions and
// insertions are extracted on either diagonal.
func CleanupSemantic(edits []Edit) []Edit {
	if len(edits) == 0 {
		return edits
	}
	changes := false
	var equalities []int // indices of candidate equalities
	lastEquality := ""
	pointer := 0
	// Edit mass before and after the candidate equality.
	lenInsertions1, lenDeletions1 := 0, 0
	lenInsertions2, lenDeletions2 := 0, 0
	for pointer < len(edits) {
		if edits[pointer].Op == OpEqual {
			equalities = append(equalities, pointer)
			lenInsertions1, lenDeletions1 = lenInsertions2, lenDeletions2
			lenInsertions2, lenDeletions2 = 0, 0
			lastEquality = edits[pointer].Text
		} else {
			if edits[pointer].Op == OpInsert {
				lenInsertions2 += runeCount(edits[pointer].Text)
			} else {
				lenDeletions2 += runeCount(edits[pointer].Text)
			}
			eqLen := runeCount(lastEquality)
			if lastEquality != "" &&
				eqLen <= max(lenInsertions1, lenDeletions1) &&
				eqLen <= max(lenInsertions2, lenDeletions2) {
				insPoint := equalities[len(equalities)-1]
				edits = splice(edits, insPoint, 1,
					Edit{OpDelete, lastEquality},
					Edit{OpInsert, lastEquality})
				equalities = equalities[:len(equalities)-1]
				// The previous equality needs re-evaluation too.
				if len(equalities) > 0 {
					equalities = equalities[:len(equalities)-1]
				}
				if len(equalities) > 0 {
					pointer = equalities[len(equalities)-1]
				} else {
					pointer = -1 // walk back to the start
				}
				lenInsertions1, lenDeletions1 = 0, 0
				lenInsertions2, lenDeletions2 = 0, 0
				lastEquality = ""
				changes = true
			}
		}
		pointer++
	}
	if changes {
		edits = CleanupMerge(edits)
	}
	edits = CleanupSemanticLossless(edits)

	// Extract overlaps between adjacent deletion/insertion pairs,
	// e.g: <del>abcxx</del><ins>xxdef</ins> -> <del>abc</del>xx<ins>def</ins>
	// and symmetrically on the other diagonal.
	pointer = 1
	for pointer < len(edits) {
		if edits[pointer-1].Op == OpDelete && edits[pointer].Op == OpInsert {
			deletion := []rune(edits[pointer-1].Text)
			insertion := []rune(edits[pointer].Text)
			overlap1 := commonOverlap(deletion, insertion)
			overlap2 := commonOverlap(insertion, deletion)
			if overlap1 >= overlap2 && overlap1 > 0 {
				edits = splice(edits, pointer, 0, Edit{OpEqual, string(insertion[:overlap1])})
				edits[pointer-1].Text = string(deletion[:len(deletion)-overlap1])
				edits[pointer+1].Text = string(insertion[overlap1:])
				pointer++
			} else if overlap2 > overlap1 {
				edits = splice(edits, pointer, 0, Edit{OpEqual, string(deletion[:overlap2])})
				edits[pointer-1] = Edit{OpInsert, string(insertion[:len(insertion)-overlap2])}
				edits[pointer+1] = Edit{OpDelete, string(deletion[overlap2:])}
				pointer++
			}
			pointer++
		}
		pointer++
	}
	return edits
}

// CleanupSemanticLossless shifts single edits surrounded by equalities
// sideways to align them with logical boundaries, without changing the
// texts the script produces.
// e.g: The c<ins>at c</ins>ame. -> The <ins>cat </ins>came.
func CleanupSemanticLossless(edits []Edit) []Edit {
	pointer := 1
	// The first and last element don't need checking.
	for pointer < len(edits)-1 {
		if edits[pointer-1].Op == OpEqual && edits[pointer+1].Op == OpEqual {
			equality1 := []rune(edits[pointer-1].Text)
			edit := []rune(edits[pointer].Text)
			equality2 := []rune(edits[pointer+1].Text)

			// First, shift the edit as far left as possible.
			if n := commonSuffix(equality1, edit); n != 0 {
				common := append([]rune(nil), edit[len(edit)-n:]...)
				equality1 = equality1[:len(equality1)-n]
				edit = concatRunes(common, edit[:len(edit)-n])
				equality2 = concatRunes(common, equality2)
			}

			// Second, step rune by rune right, looking for the best fit.
			bestEquality1 := string(equality1)
			bestEdit := string(edit)
			bestEquality2 := string(equality2)
			bestScore := semanticScore(equality1, edit) + semanticScore(edit, equality2)
			for len(edit) != 0 && len(equality2) != 0 && edit[0] == equality2[0] {
				equality1 = append(equality1, edit[0])
				edit = concatRunes(edit[1:], equality2[:1])
				equality2 = equality2[1:]
				score := semanticScore(equality1, edit) + semanticScore(edit, equality2)
				// >= favors trailing over leading whitespace on edits.
				if score >= bestScore {
					bestScore = score
					bestEquality1 = string(equality1)
					bestEdit = string(edit)
					bestEquality2 = string(equality2)
				}
			}

			if edits[pointer-1].Text != bestEquality1 {
				// An improvement was found; save it back to the script.
				if bestEquality1 != "" {
					edits[pointer-1].Text = bestEquality1
				} else {
					edits = splice(edits, pointer-1, 1)
					pointer--
				}
				edits[pointer].Text = bestEdit
				if bestEquality2 != "" {
					edits[pointer+1].Text = bestEquality2
				} else {
					edits = splice(edits, pointer+1, 1)
					pointer--
				}
			}
		}
		pointer++
	}
	return edits
}

var (
	blankLineEnd   = regexp.MustCompile(`\n\r?\n$`)
	blankLineStart = regexp.MustCompile(`^\r?\n\r?\n`)
)

// semanticScore rates how well the boundary between one and two falls on
// logical boundaries, from 0 (worst) to 5 (best).
func semanticScore(one, two []rune) int {
	if len(one) == 0 || len(two) == 0 {
		// Edges are the best.
		return 5
	}
	char1 := one[len(one)-1]
	char2 := two[0]
	nonAlphaNumeric1 := !unicode.IsLetter(char1) && !unicode.IsDigit(char1)
	nonAlphaNumeric2 := !unicode.IsLetter(char2) && !unicode.IsDigit(char2)
	whitespace1 := nonAlphaNumeric1 && unicode.IsSpace(char1)
	whitespace2 := nonAlphaNumeric2 && unicode.IsSpace(char2)
	lineBreak1 := whitespace1 && unicode.IsControl(char1)
	lineBreak2 := whitespace2 && unicode.IsControl(char2)
	blankLine1 := lineBreak1 && blankLineEnd.MatchString(string(one))
	blankLine2 := lineBreak2 && blankLineStart.MatchString(string(two))

	score := 0
	if nonAlphaNumeric1 || nonAlphaNumeric2 {
		score++ // non-alphanumeric
		if whitespace1 || whitespace2 {
			score++ // whitespace
			if lineBreak1 || lineBreak2 {
				score++ // line break
				if blankLine1 || blankLine2 {
					score++ // blank line
				}
			}
		}
	}
	return score
}

// CleanupEfficiency eliminates operationally trivial equalities: short
// equalities (under DiffEditCost) that sit between enough edit activity to
// make folding them cheaper than keeping them.
func (e *Engine) CleanupEfficiency(edits []Edit) []Edit {
	if len(edits) == 0 {
		return edits
	}
	changes := false
	var equalities []int // indices of candidate equalities
	lastEquality := ""
	pointer := 0
	// Whether an insertion/deletion precedes or follows the candidate.
	preIns, preDel := false, false
	postIns, postDel := false, false
	for pointer < len(edits) {
		if edits[pointer].Op == OpEqual {
			if runeCount(edits[pointer].Text) < e.DiffEditCost && (postIns || postDel) {
				// Candidate found.
				equalities = append(equalities, pointer)
				preIns, preDel = postIns, postDel
				lastEquality = edits[pointer].Text
			} else {
				// Not a candidate, and can never become one.
				equalities = nil
				lastEquality = ""
			}
			postIns, postDel = false, false
		} else {
			if edits[pointer].Op == OpDelete {
				postDel = true
			} else {
				postIns = true
			}
			// Edit shapes that justify the fold:
			// <ins>A</ins><del>B</del>XY<ins>C</ins><del>D</del>
			// <ins>A</ins>X<ins>C</ins><del>D</del>
			// <ins>A</ins><del>B</del>X<ins>C</ins>
			// <ins>A</ins><del>B</del>X<del>C</del>
			sides := boolCount(preIns) + boolCount(preDel) + boolCount(postIns) + boolCount(postDel)
			if lastEquality != "" &&
				((preIns && preDel && postIns && postDel) ||
					(runeCount(lastEquality) < e.DiffEditCost/2 && sides == 3)) {
				insPoint := equalities[len(equalities)-1]
				edits = splice(edits, insPoint, 1,
					Edit{OpDelete, lastEquality},
					Edit{OpInsert, lastEquality})
				equalities = equalities[:len(equalities)-1]
				lastEquality = ""
				if preIns && preDel {
					// No changes made that could affect previous entries.
					postIns, postDel = true, true
					equalities = nil
				} else {
					if len(equalities) > 0 {
						equalities = equalities[:len(equalities)-1]
					}
					if len(equalities) > 0 {
						pointer = equalities[len(equalities)-1]
					} else {
						pointer = -1
					}
					postIns, postDel = false, false
				}
				changes = true
			}
		}
		pointer++
	}
	if changes {
		edits = CleanupMerge(edits)
	}
	return edits
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
