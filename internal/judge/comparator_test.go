package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputsMatch(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{"exact match", "42\n", "42\n", true},
		{"whitespace trimmed", "  42  \n", "42", true},
		{"plain mismatch", "42", "43", false},
		{"json object reordered keys", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"json array different formatting", "[1, 2, 3]", "[1,2,3]", true},
		{"json array mismatch", "[1,2,3]", "[1,2,4]", false},
		{"non-json mismatch falls through", "not json", "also not json", false},
		{"one side not json", `{"a":1}`, "not json", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, outputsMatch(tc.expected, tc.actual))
		})
	}
}

func TestJSONEqualNestedStructures(t *testing.T) {
	a := map[string]interface{}{
		"list": []interface{}{1.0, 2.0, map[string]interface{}{"x": "y"}},
	}
	b := map[string]interface{}{
		"list": []interface{}{1.0, 2.0, map[string]interface{}{"x": "y"}},
	}
	assert.True(t, jsonEqual(a, b), "expected deeply equal structures to match")

	c := map[string]interface{}{
		"list": []interface{}{1.0, 2.0, map[string]interface{}{"x": "z"}},
	}
	assert.False(t, jsonEqual(a, c), "expected differing nested value to not match")
}
