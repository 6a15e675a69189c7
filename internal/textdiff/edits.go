package textdiff

import "strings"

// Text1 returns the source text of an edit script: all equalities and
// deletions.
func Text1(edits []Edit) string {
	var b strings.Builder
	for _, ed := range edits {
		if ed.Op != OpInsert {
			b.WriteString(ed.Text)
		}
	}
	return b.String()
}

// Text2 returns the destination text of an edit script: all equalities and
// insertions.
func Text2(edits []Edit) string {
	var b strings.Builder
	for _, ed := range edits {
		if ed.Op != OpDelete {
			b.WriteString(ed.Text)
		}
	}
	return b.String()
}

// Levenshtein returns the number of inserted, deleted, or substituted
// characters in an edit script. A paired deletion and insertion counts as
// one substitution.
func Levenshtein(edits []Edit) int {
	levenshtein := 0
	insertions, deletions := 0, 0
	for _, ed := range edits {
		switch ed.Op {
		case OpInsert:
			insertions += runeCount(ed.Text)
		case OpDelete:
			deletions += runeCount(ed.Text)
		case OpEqual:
			levenshtein += max(insertions, deletions)
			insertions, deletions = 0, 0
		}
	}
	return levenshtein + max(insertions, deletions)
}

// XIndex translates a rune offset in text1 to the equivalent offset in
// text2. Offsets inside a deletion map to the position just after it.
func XIndex(edits []Edit, loc int) int {
	chars1, chars2 := 0, 0
	lastChars1, lastChars2 := 0, 0
	var last *Edit
	for i := range edits {
		ed := &edits[i]
		if ed.Op != OpInsert {
			chars1 += runeCount(ed.Text)
		}
		if ed.Op != OpDelete {
			chars2 += runeCount(ed.Text)
		}
		if chars1 > loc {
			last = ed
			break
		}
		lastChars1 = chars1
		lastChars2 = chars2
	}
	if last != nil && last.Op == OpDelete {
		// The location was deleted.
		return lastChars2
	}
	return lastChars2 + (loc - lastChars1)
}

// splice replaces amount elements of edits at index with the given elements,
// reusing the backing array when the sizes match.
func splice(edits []Edit, index, amount int, elements ...Edit) []Edit {
	if len(elements) == amount {
		copy(edits[index:], elements)
		return edits
	}
	out := make([]Edit, 0, len(edits)-amount+len(elements))
	out = append(out, edits[:index]...)
	out = append(out, elements...)
	out = append(out, edits[index+amount:]...)
	return out
}
