package compress

import (
	"fmt"

	"github.com/golang/snappy"
)

// Snappy trades ratio for speed; suitable for stores with very frequent
// snapshots.
type Snappy struct{}

func (Snappy) Compress(s string) string {
	return snappyTag + armor(snappy.Encode(nil, []byte(s)))
}

func (Snappy) Decompress(s string) (string, error) {
	b, err := body(s, snappyTag)
	if err != nil {
		return "", err
	}
	raw, err := dearmor(b)
	if err != nil {
		return "", err
	}
	out, err := snappy.Decode(nil, raw)
	if err != nil {
		return "", fmt.Errorf("compress: snappy: %w", err)
	}
	return string(out), nil
}
