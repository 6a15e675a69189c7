// Package textutil normalizes file-backed input before it enters a store.
// The engine itself accepts any string; normalization is an input-edge
// concern so that snapshots taken on different platforms hash identically.
package textutil

import "bytes"

// NormalizeUTF8LF converts CRLF and lone CR to LF and ensures the output is
// valid UTF-8 by replacing invalid byte sequences with the Unicode
// replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("�"))
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
