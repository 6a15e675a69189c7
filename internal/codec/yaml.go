package codec

import "gopkg.in/yaml.v3"

// YAML encodes values as YAML documents. Suited to stores whose diffs
// should stay human-readable line by line.
type YAML[T any] struct{}

func (YAML[T]) Encode(v T) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (YAML[T]) Decode(s string) (T, error) {
	var v T
	err := yaml.Unmarshal([]byte(s), &v)
	return v, err
}
