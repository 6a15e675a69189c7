// Package codec provides Codec implementations mapping user values to the
// canonical text the store hashes and diffs. Every codec here is
// deterministic: equal values produce byte-equal encodings.
package codec

import "encoding/json"

// String is the identity codec for stores of plain text.
type String struct{}

func (String) Encode(v string) (string, error) { return v, nil }
func (String) Decode(s string) (string, error) { return s, nil }

// JSON encodes values as compact JSON. Map keys are sorted by the encoder,
// so equal values encode identically.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSON[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
