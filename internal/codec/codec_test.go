package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string `json:"name" yaml:"name" cbor:"name"`
	Age     int    `json:"age" yaml:"age" cbor:"age"`
	Tel     string `json:"tel" yaml:"tel" cbor:"tel"`
	Address string `json:"address" yaml:"address" cbor:"address"`
}

var bob = person{
	Name:    "Bob",
	Age:     17,
	Tel:     "1545645646",
	Address: "3 rue du gymnase\n89245 Bidonville",
}

func TestStringCodec(t *testing.T) {
	s, err := String{}.Encode("hello\nworld")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", s)
	v, err := String{}.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", v)
}

func TestJSONCodec(t *testing.T) {
	c := JSON[person]{}
	s, err := c.Encode(bob)
	require.NoError(t, err)
	v, err := c.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, bob, v)

	// Deterministic for equal values, including map keys.
	m := JSON[map[string]int]{}
	s1, err := m.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	s2, err := m.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestYAMLCodec(t *testing.T) {
	c := YAML[person]{}
	s, err := c.Encode(bob)
	require.NoError(t, err)
	v, err := c.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, bob, v)

	s2, err := c.Encode(bob)
	require.NoError(t, err)
	assert.Equal(t, s, s2)
}

func TestCBORCodec(t *testing.T) {
	c := CBOR[person]{}
	s, err := c.Encode(bob)
	require.NoError(t, err)
	v, err := c.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, bob, v)

	m := CBOR[map[string]int]{}
	s1, err := m.Encode(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	s2, err := m.Encode(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	_, err = c.Decode("not base64!!!")
	assert.Error(t, err)
}
