package textdiff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDelta reports a malformed compact delta.
var ErrInvalidDelta = errors.New("invalid delta")

// ToDelta crushes an edit script into a compact string describing the
// operations needed to turn text1 into text2.
// E.g. =3\t-2\t+ing -> keep 3 runes, delete 2 runes, insert "ing".
// Operations are tab-separated; inserted text is %xx-escaped.
func ToDelta(edits []Edit) string {
	var tokens []string
	for _, ed := range edits {
		switch ed.Op {
		case OpInsert:
			tokens = append(tokens, "+"+uriEncode(ed.Text))
		case OpDelete:
			tokens = append(tokens, "-"+strconv.Itoa(runeCount(ed.Text)))
		case OpEqual:
			tokens = append(tokens, "="+strconv.Itoa(runeCount(ed.Text)))
		}
	}
	return strings.Join(tokens, "\t")
}

// FromDelta rebuilds the full edit script from the source text and a compact
// delta produced by ToDelta.
func FromDelta(text1, delta string) ([]Edit, error) {
	runes1 := []rune(text1)
	pointer := 0 // cursor in runes1
	var edits []Edit
	for _, token := range strings.Split(delta, "\t") {
		if token == "" {
			// Blank tokens are ok (from a trailing \t).
			continue
		}
		param := token[1:]
		switch token[0] {
		case '+':
			text, err := uriDecode(param)
			if err != nil {
				return nil, fmt.Errorf("%w: illegal escape in %q: %v", ErrInvalidDelta, param, err)
			}
			edits = append(edits, Edit{OpInsert, text})
		case '-', '=':
			n, err := strconv.Atoi(param)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q", ErrInvalidDelta, param)
			}
			if n < 0 {
				return nil, fmt.Errorf("%w: negative number %q", ErrInvalidDelta, param)
			}
			if pointer+n > len(runes1) {
				return nil, fmt.Errorf("%w: delta length %d larger than source text length %d",
					ErrInvalidDelta, pointer+n, len(runes1))
			}
			text := string(runes1[pointer : pointer+n])
			pointer += n
			if token[0] == '=' {
				edits = append(edits, Edit{OpEqual, text})
			} else {
				edits = append(edits, Edit{OpDelete, text})
			}
		default:
			return nil, fmt.Errorf("%w: invalid operation %q", ErrInvalidDelta, token[:1])
		}
	}
	if pointer != len(runes1) {
		return nil, fmt.Errorf("%w: delta length %d smaller than source text length %d",
			ErrInvalidDelta, pointer, len(runes1))
	}
	return edits, nil
}

// uriSafe holds every byte that survives percent-encoding unescaped. Space
// and '+' pass through literally; the decoder compensates.
const uriSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	" -_.!~*'();/?:@&=+$,#"

const upperHex = "0123456789ABCDEF"

// uriEncode escapes s for the delta and patch text formats: the uriSafe set
// passes through, every other byte of the UTF-8 form becomes %HH uppercase.
func uriEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(uriSafe, c) != -1 {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0xF])
		}
	}
	return b.String()
}

// uriDecode reverses uriEncode. Unlike query unescaping, '+' stands for
// itself. Hex digits of either case are accepted.
func uriDecode(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape %q", s[i:])
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("malformed escape %q", s[i:i+3])
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
