package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResultDetailsRedactsHidden(t *testing.T) {
	result := &ExecutionResult{
		TestResults: []TestResult{
			{TestCaseID: 1, TestIndex: 0, IsHidden: false, Status: ExecSuccess, Input: "2 3", Expected: "5", Stdout: "5"},
			{TestCaseID: 2, TestIndex: 1, IsHidden: true, Status: ExecWrongAnswer, Input: "secret-in", Expected: "secret-exp", Stdout: "secret-out", Stderr: "secret-err"},
		},
	}

	details := buildResultDetails(result)
	require.Len(t, details, 2)

	visible := details[0]
	for _, key := range []string{"input", "expected_output", "actual_output"} {
		assert.Contains(t, visible, key, "visible test case missing %q", key)
	}

	hidden := details[1]
	for _, key := range []string{"input", "expected_output", "actual_output", "stderr"} {
		assert.NotContains(t, hidden, key, "hidden test case leaked field %q", key)
	}
	assert.Equal(t, int64(2), hidden["test_case_id"], "hidden test case lost its id")
	assert.Equal(t, true, hidden["is_hidden"], "hidden test case lost its is_hidden flag")
}

func TestBuildResultDetailsPrependsCompilationError(t *testing.T) {
	result := &ExecutionResult{
		CompilationOutput: "line 1: syntax error",
		TestResults:       []TestResult{{TestCaseID: 1, TestIndex: 0, Status: ExecCompilationError}},
	}

	details := buildResultDetails(result)
	require.Len(t, details, 2, "compilation error + 1 test")
	assert.Contains(t, details[0], "compilation_error", "expected the compilation error entry to be first")
}

func TestBuildResultDetailsNoCompilationOutput(t *testing.T) {
	result := &ExecutionResult{
		TestResults: []TestResult{{TestCaseID: 1, TestIndex: 0, Status: ExecSuccess}},
	}
	details := buildResultDetails(result)
	require.Len(t, details, 1)
	assert.NotContains(t, details[0], "compilation_error")
}
