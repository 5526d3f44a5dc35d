package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tc := TestCase{ID: 1, Order: 0, Expected: "42\n"}

	cases := []struct {
		name     string
		exitCode int
		stdout   string
		want     ExecStatus
	}{
		{"timeout exit code", timeoutExitCode, "", ExecTimeLimitExceeded},
		{"nonzero exit code", 1, "42", ExecRuntimeError},
		{"output mismatch", 0, "43", ExecWrongAnswer},
		{"output match", 0, "42", ExecSuccess},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classify(tc, c.stdout, "", c.exitCode, 0, 0, DefaultLimits)
			assert.Equal(t, c.want, got.Status)
			assert.Equal(t, tc.ID, got.TestCaseID)
		})
	}
}

func TestClassifyTruncatesStoredOutput(t *testing.T) {
	tc := TestCase{ID: 1, Order: 0, Expected: "ok"}
	limits := ResourceLimits{MaxStdoutBytes: 4, MaxStderrBytes: 3}

	got := classify(tc, "ok", "way too long to keep", 0, 0, 0, limits)

	assert.Len(t, got.Stderr, limits.MaxStderrBytes)
}

func TestClassifyComparesUntruncatedOutput(t *testing.T) {
	// The verdict must be computed against the real stdout, not the
	// truncated copy that ends up on the TestResult.
	tc := TestCase{ID: 1, Order: 0, Expected: "a-long-expected-value"}
	limits := ResourceLimits{MaxStdoutBytes: 3, MaxStderrBytes: 3}

	got := classify(tc, "a-long-expected-value", "", 0, 0, 0, limits)

	assert.Equal(t, ExecSuccess, got.Status, "truncation must not affect comparison")
	assert.Equal(t, "a-l", got.Stdout)
}

func TestAggregatePrecedence(t *testing.T) {
	testCases := []TestCase{{ID: 1}, {ID: 2}, {ID: 3}}

	cases := []struct {
		name     string
		statuses []ExecStatus
		want     ExecStatus
	}{
		{"all success", []ExecStatus{ExecSuccess, ExecSuccess, ExecSuccess}, ExecSuccess},
		{"wa beats success", []ExecStatus{ExecSuccess, ExecWrongAnswer, ExecSuccess}, ExecWrongAnswer},
		{"re beats wa", []ExecStatus{ExecWrongAnswer, ExecRuntimeError, ExecSuccess}, ExecRuntimeError},
		{"tle beats everything", []ExecStatus{ExecRuntimeError, ExecTimeLimitExceeded, ExecWrongAnswer}, ExecTimeLimitExceeded},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			results := make([]TestResult, len(c.statuses))
			for i, s := range c.statuses {
				results[i] = TestResult{TestCaseID: testCases[i].ID, Status: s}
			}
			out := aggregate(results, testCases)
			assert.Equal(t, c.want, out.Status)
			assert.Equal(t, len(testCases), out.TotalCount)
		})
	}
}

func TestAggregatePassedCount(t *testing.T) {
	testCases := []TestCase{{ID: 1}, {ID: 2}, {ID: 3}}
	results := []TestResult{
		{TestCaseID: 1, Status: ExecSuccess},
		{TestCaseID: 2, Status: ExecWrongAnswer},
		{TestCaseID: 3, Status: ExecSuccess},
	}
	out := aggregate(results, testCases)
	assert.Equal(t, 2, out.PassedCount)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10), "unchanged string under the limit")
	assert.Equal(t, "hello", truncate("hello world", 5))
	assert.Equal(t, "", truncate("", 5))
}
