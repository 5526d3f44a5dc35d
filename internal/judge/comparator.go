package judge

import (
	"encoding/json"
	"strings"
)

// outputsMatch decides whether actual satisfies expected. It strips leading
// and trailing whitespace from both and checks for an exact match first;
// function-call-style problems emit JSON on stdout, so a second pass falls
// back to structural JSON equality (key order and formatting don't matter,
// only the decoded value). Anything that fails to parse as JSON on either
// side is left to the exact-match result.
func outputsMatch(expected, actual string) bool {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)
	if expected == actual {
		return true
	}

	var expectedVal, actualVal interface{}
	if err := json.Unmarshal([]byte(expected), &expectedVal); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(actual), &actualVal); err != nil {
		return false
	}
	return jsonEqual(expectedVal, actualVal)
}

// jsonEqual compares two values decoded from JSON, recursing through maps
// and slices. Numbers always decode to float64 via encoding/json so a plain
// == after decoding is enough for scalars.
func jsonEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aval := range av {
			bval, ok := bv[k]
			if !ok || !jsonEqual(aval, bval) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
