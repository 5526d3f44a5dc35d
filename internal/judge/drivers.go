package judge

import "fmt"

// pythonDriverTemplate wraps a submitted function so the sandbox can feed it
// one JSON-encoded argument value per line on stdin; the lines together form
// the argument list of a single call, whose JSON-encoded result is printed on
// stdout. Used for function-call-style ("driver") problems rather than plain
// stdin/stdout ones.
const pythonDriverTemplate = `
import json as _json, sys as _sys

_lines = _sys.stdin.read().strip().split('\n')
_args = [_json.loads(_l) for _l in _lines if _l]
_sol = Solution()
_result = _sol.%s(*_args)
print(_json.dumps(_result))
`

// GenerateDriver returns the driver-stub source to append after a
// submission's code for languages that support function-call wrapping, or
// ("", false) when the language has no driver (plain stdin/stdout, or a
// language the driver generator doesn't support yet).
//
// Java and C problems with a FunctionName are accepted at the API layer but
// have no generated driver: the submitted source is expected to already
// provide a main/stdin harness, matching the upstream implementation this
// judge core is derived from.
func GenerateDriver(languageSlug, functionName string) (string, bool) {
	if functionName == "" {
		return "", false
	}
	switch languageSlug {
	case "python3", "python":
		return fmt.Sprintf(pythonDriverTemplate, functionName), true
	case "java", "c":
		return "", false
	default:
		return "", false
	}
}
