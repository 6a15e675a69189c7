package textdiff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidPatch reports a malformed portable patch text.
var ErrInvalidPatch = errors.New("invalid patch")

var patchHeader = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@$`)

// String renders the patch in the GNU-diff-shaped portable form. Indices
// are printed 1-based; a length of 0 keeps the 0-based start, a length of 1
// omits the length.
func (p *Patch) String() string {
	coords1 := patchCoords(p.Start1, p.Length1)
	coords2 := patchCoords(p.Start2, p.Length2)
	var b strings.Builder
	b.WriteString("@@ -")
	b.WriteString(coords1)
	b.WriteString(" +")
	b.WriteString(coords2)
	b.WriteString(" @@\n")
	for _, ed := range p.Edits {
		switch ed.Op {
		case OpInsert:
			b.WriteByte('+')
		case OpDelete:
			b.WriteByte('-')
		case OpEqual:
			b.WriteByte(' ')
		}
		b.WriteString(uriEncode(ed.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

func patchCoords(start, length int) string {
	switch length {
	case 0:
		return strconv.Itoa(start) + ",0"
	case 1:
		return strconv.Itoa(start + 1)
	default:
		return strconv.Itoa(start+1) + "," + strconv.Itoa(length)
	}
}

// PatchesToText renders a patch list as newline-separated portable text.
func PatchesToText(patches []Patch) string {
	var b strings.Builder
	for i := range patches {
		b.WriteString(patches[i].String())
	}
	return b.String()
}

// PatchesFromText parses the portable text form back into a patch list.
func PatchesFromText(text string) ([]Patch, error) {
	var patches []Patch
	if text == "" {
		return patches, nil
	}
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		m := patchHeader.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, fmt.Errorf("%w: invalid patch string %q", ErrInvalidPatch, lines[i])
		}
		var p Patch
		p.Start1, _ = strconv.Atoi(m[1])
		switch m[2] {
		case "":
			p.Start1--
			p.Length1 = 1
		case "0":
			p.Length1 = 0
		default:
			p.Start1--
			p.Length1, _ = strconv.Atoi(m[2])
		}
		p.Start2, _ = strconv.Atoi(m[3])
		switch m[4] {
		case "":
			p.Start2--
			p.Length2 = 1
		case "0":
			p.Length2 = 0
		default:
			p.Start2--
			p.Length2, _ = strconv.Atoi(m[4])
		}
		i++

		for i < len(lines) {
			if lines[i] == "" {
				// Blank line? Whatever.
				i++
				continue
			}
			sign := lines[i][0]
			if sign == '@' {
				// Start of the next patch.
				break
			}
			line, err := uriDecode(lines[i][1:])
			if err != nil {
				return nil, fmt.Errorf("%w: illegal escape in %q: %v", ErrInvalidPatch, lines[i][1:], err)
			}
			switch sign {
			case '-':
				p.Edits = append(p.Edits, Edit{OpDelete, line})
			case '+':
				p.Edits = append(p.Edits, Edit{OpInsert, line})
			case ' ':
				p.Edits = append(p.Edits, Edit{OpEqual, line})
			default:
				return nil, fmt.Errorf("%w: invalid patch mode %q in %q", ErrInvalidPatch, string(sign), line)
			}
			i++
		}
		patches = append(patches, p)
	}
	return patches, nil
}
