package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripper interface {
	Compress(string) string
	Decompress(string) (string, error)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"@@ -1,8 +1,7 @@\n Th\n-at\n+e\n  qui\n",
		strings.Repeat("World of Warcraft\n", 50),
		"ڀ \x00 \t % binary-ish \x01\x02",
	}
	for name, c := range map[string]roundTripper{
		"identity": Identity{},
		"zstd":     Zstd{},
		"snappy":   Snappy{},
	} {
		for _, in := range inputs {
			blob := c.Compress(in)
			out, err := c.Decompress(blob)
			require.NoError(t, err, name)
			assert.Equal(t, in, out, name)
		}
	}
}

func TestCompressShrinksRepetitiveText(t *testing.T) {
	in := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 100)
	assert.Less(t, len(Zstd{}.Compress(in)), len(in))
	assert.Less(t, len(Snappy{}.Compress(in)), len(in))
}

func TestDecompressRejectsForeignFrames(t *testing.T) {
	_, err := Zstd{}.Decompress("s85:whatever")
	assert.Error(t, err)
	_, err = Snappy{}.Decompress("z85:whatever")
	assert.Error(t, err)
	_, err = Identity{}.Decompress("z85:whatever")
	assert.Error(t, err)
	_, err = Zstd{}.Decompress("z85:\x00notascii85~~~~")
	assert.Error(t, err)
}

func TestCompressDeterministic(t *testing.T) {
	in := "@@ -1,11 +1,12 @@\n Th\n-e\n+at\n  quick b\n"
	assert.Equal(t, Zstd{}.Compress(in), Zstd{}.Compress(in))
	assert.Equal(t, Snappy{}.Compress(in), Snappy{}.Compress(in))
}
