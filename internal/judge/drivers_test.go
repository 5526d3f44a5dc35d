package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDriverPython(t *testing.T) {
	for _, slug := range []string{"python3", "python"} {
		driver, ok := GenerateDriver(slug, "twoSum")
		require.True(t, ok, "expected a driver for %q", slug)
		assert.Contains(t, driver, "_sol.twoSum(*_args)", "driver for %q doesn't call the submitted function", slug)
		assert.Contains(t, driver, "Solution()", "driver for %q doesn't instantiate Solution", slug)
	}
}

func TestGenerateDriverNoFunctionName(t *testing.T) {
	_, ok := GenerateDriver("python3", "")
	assert.False(t, ok, "expected no driver when function name is empty")
}

func TestGenerateDriverUnsupportedLanguage(t *testing.T) {
	for _, slug := range []string{"java", "c", "ruby"} {
		_, ok := GenerateDriver(slug, "twoSum")
		assert.False(t, ok, "expected no driver for %q, the harness is expected in submitted source", slug)
	}
}
