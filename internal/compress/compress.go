// Package compress provides lossless text-to-text compressors for stored
// patch blobs. Compressed bytes are ascii85-armored so the result stays a
// plain string, and every frame carries a short tag identifying the scheme,
// keeping the compressed form stable per version.
package compress

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
	"io"
	"strings"
)

// Identity stores text uncompressed behind the "raw:" tag. Useful for tests
// and for payloads that are already dense.
type Identity struct{}

func (Identity) Compress(s string) string { return rawTag + s }

func (Identity) Decompress(s string) (string, error) {
	body, err := body(s, rawTag)
	if err != nil {
		return "", err
	}
	return body, nil
}

const (
	rawTag    = "raw:"
	zstdTag   = "z85:"
	snappyTag = "s85:"
)

func body(s, tag string) (string, error) {
	if !strings.HasPrefix(s, tag) {
		return "", fmt.Errorf("compress: blob is not %q framed", tag)
	}
	return s[len(tag):], nil
}

// armor ascii85-encodes compressed bytes into a printable string.
func armor(b []byte) string {
	var buf bytes.Buffer
	enc := ascii85.NewEncoder(&buf)
	enc.Write(b)
	enc.Close()
	return buf.String()
}

func dearmor(s string) ([]byte, error) {
	b, err := io.ReadAll(ascii85.NewDecoder(strings.NewReader(s)))
	if err != nil {
		return nil, fmt.Errorf("compress: bad ascii85 armor: %w", err)
	}
	return b, nil
}
