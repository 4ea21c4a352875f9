package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind BlockKind
		want string
	}{
		{"bare array", `["a","b"]`, BlockArray, `["a","b"]`},
		{"array after prose", `Tags: ["invoice", "billing"] thanks`, BlockArray, `["invoice", "billing"]`},
		{"nested array", `x [[1,2],[3]] y`, BlockArray, `[[1,2],[3]]`},
		{"bracket inside string", `["a]b", "c"] tail]`, BlockArray, `["a]b", "c"]`},
		{"escaped quote inside string", `["say \"]\"", "x"]`, BlockArray, `["say \"]\"", "x"]`},
		{"first of two arrays", `[1] and [2]`, BlockArray, `[1]`},
		{"object with nested object", `pre {"a":{"b":1}} post}`, BlockObject, `{"a":{"b":1}}`},
		{"object with brace in string", `{"t":"}{"}`, BlockObject, `{"t":"}{"}`},
		{"object with array inside", "```json\n{\"fields\":[\"A\",\"B\"]}\n```", BlockObject, `{"fields":["A","B"]}`},
		{"object inside array kind", `[{"a":[1]}]`, BlockArray, `[{"a":[1]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindBlock(tt.in, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindBlock_NoBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind BlockKind
	}{
		{"empty", "", BlockArray},
		{"no opener", "just some prose", BlockArray},
		{"only closer", "oops ]", BlockArray},
		{"unterminated array", `["a", "b"`, BlockArray},
		{"unterminated object", `{"title": "x", "fields": [}`, BlockObject},
		{"closer hidden in string", `["a]`, BlockArray},
		{"object absent", `["a"]`, BlockObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindBlock(tt.in, tt.kind)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoBlockFound))
			assert.Empty(t, got)
		})
	}
}

// A string that is exactly a JSON array with no surrounding text is returned unchanged.
func TestFindBlock_ExactArray(t *testing.T) {
	for _, in := range []string{`[]`, `["x"]`, `["a", ["b"], {"c": "]"}]`} {
		got, err := FindBlock(in, BlockArray)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}
