package codec

import (
	"encoding/base64"

	"github.com/fxamacker/cbor/v2"
)

// cborEnc uses canonical mode so map ordering and number forms are
// deterministic, which revision identity requires.
var cborEnc, _ = cbor.CanonicalEncOptions().EncMode()

// CBOR encodes values as canonical CBOR, base64-armored because the store's
// texts are strings. Denser than JSON or YAML for binary-heavy values,
// at the cost of diff readability.
type CBOR[T any] struct{}

func (CBOR[T]) Encode(v T) (string, error) {
	b, err := cborEnc.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (CBOR[T]) Decode(s string) (T, error) {
	var v T
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return v, err
	}
	err = cbor.Unmarshal(b, &v)
	return v, err
}
