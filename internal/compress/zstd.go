package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Package-level encoder/decoder for reuse (both are safe for concurrent
// use via EncodeAll/DecodeAll).
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Zstd compresses blobs with zstd and ascii85-armors the result. This is
// the default store compressor.
type Zstd struct{}

func (Zstd) Compress(s string) string {
	return zstdTag + armor(zstdEncoder.EncodeAll([]byte(s), nil))
}

func (Zstd) Decompress(s string) (string, error) {
	b, err := body(s, zstdTag)
	if err != nil {
		return "", err
	}
	raw, err := dearmor(b)
	if err != nil {
		return "", err
	}
	out, err := zstdDecoder.DecodeAll(raw, nil)
	if err != nil {
		return "", fmt.Errorf("compress: zstd: %w", err)
	}
	return string(out), nil
}
