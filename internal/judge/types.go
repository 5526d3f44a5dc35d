// Package judge implements the submission judging pipeline: the state machine,
// job queue, sandboxed execution engine, test-case cache, and live status
// fan-out.
package judge

import (
	"time"
)

// Status is a submission's lifecycle state.
type Status string

const (
	StatusPending             Status = "pending"
	StatusRunning             Status = "running"
	StatusAccepted            Status = "accepted"
	StatusWrongAnswer         Status = "wrong_answer"
	StatusTimeLimitExceeded   Status = "time_limit_exceeded"
	StatusMemoryLimitExceeded Status = "memory_limit_exceeded"
	StatusRuntimeError        Status = "runtime_error"
	StatusCompilationError    Status = "compilation_error"
)

// Terminal reports whether s is one of the six terminal states.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded, StatusRuntimeError, StatusCompilationError:
		return true
	default:
		return false
	}
}

// ExecStatus is the verdict the execution engine assigns to a single test or
// to a run as a whole, before it is mapped onto a Submission Status.
type ExecStatus string

const (
	ExecSuccess             ExecStatus = "success"
	ExecWrongAnswer         ExecStatus = "wrong_answer"
	ExecTimeLimitExceeded   ExecStatus = "time_limit_exceeded"
	ExecMemoryLimitExceeded ExecStatus = "memory_limit_exceeded"
	ExecRuntimeError        ExecStatus = "runtime_error"
	ExecCompilationError    ExecStatus = "compilation_error"
	ExecInternalError       ExecStatus = "internal_error"
)

var statusMap = map[ExecStatus]Status{
	ExecSuccess:             StatusAccepted,
	ExecWrongAnswer:         StatusWrongAnswer,
	ExecTimeLimitExceeded:   StatusTimeLimitExceeded,
	ExecMemoryLimitExceeded: StatusMemoryLimitExceeded,
	ExecRuntimeError:        StatusRuntimeError,
	ExecCompilationError:    StatusCompilationError,
	ExecInternalError:       StatusRuntimeError,
}

// MapExecStatus maps an Execution Engine verdict onto a Submission status.
func MapExecStatus(s ExecStatus) Status {
	if mapped, ok := statusMap[s]; ok {
		return mapped
	}
	return StatusRuntimeError
}

// Submission is a user's attempt at a problem.
type Submission struct {
	ID          int64                    `json:"id"`
	UserID      int64                    `json:"user_id"`
	ProblemID   int64                    `json:"problem_id"`
	LanguageID  int64                    `json:"language_id"`
	Code        string                   `json:"code"`
	Context     string                   `json:"context"`
	Status      Status                   `json:"status"`
	Passed      bool                     `json:"passed"`
	PassedCount int                      `json:"passed_count"`
	TotalCount  int                      `json:"total_count"`
	Results     []map[string]interface{} `json:"results,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// TestCase is a problem's input/expected-output pair.
type TestCase struct {
	ID       int64  `json:"id"`
	Input    string `json:"input"`
	Expected string `json:"expected_output"`
	IsHidden bool   `json:"is_hidden"`
	Order    int    `json:"order"`
}

// Problem is the slice of problem reference data the judge core consumes.
// FunctionName is empty for plain stdin/stdout problems; non-empty selects
// driver-stub wrapping for the submitted language.
type Problem struct {
	ID           int64
	FunctionName string
}

// TestResult is the outcome of running a submission against a single test case.
type TestResult struct {
	TestCaseID int64      `json:"test_case_id"`
	TestIndex  int        `json:"order"`
	IsHidden   bool       `json:"is_hidden"`
	Status     ExecStatus `json:"status"`
	Stdout     string     `json:"actual_output,omitempty"`
	Stderr     string     `json:"stderr,omitempty"`
	Input      string     `json:"input,omitempty"`
	Expected   string     `json:"expected_output,omitempty"`
	ExitCode   int        `json:"exit_code"`
	RuntimeMs  float64    `json:"runtime_ms"`
	MemoryKB   float64    `json:"memory_kb"`
}

// ExecutionResult is the Execution Engine's aggregated verdict for a full run.
type ExecutionResult struct {
	Status            ExecStatus
	TestResults       []TestResult
	CompilationOutput string
	PassedCount       int
	TotalCount        int
}
