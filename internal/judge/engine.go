package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed scripts/python_batch_runner.py
var pythonBatchRunnerSource []byte

const batchRunnerFilename = "python_batch_runner.py"

// Engine is the Execution Engine: it compiles a submission once, then runs
// it against every test case using the strategy (batch or individual) the
// submitted language calls for, and classifies each result.
type Engine struct {
	sandbox *Sandbox
}

// NewEngine builds an Execution Engine around a Sandbox runner.
func NewEngine(sandbox *Sandbox) *Engine {
	return &Engine{sandbox: sandbox}
}

// Run compiles code (if the language needs it) and executes it against every
// test case, returning the aggregated verdict.
func (e *Engine) Run(ctx context.Context, langSlug, code string, driver string, testCases []TestCase, limits ResourceLimits) (*ExecutionResult, error) {
	tracer := otel.Tracer("judge-engine")
	ctx, span := tracer.Start(ctx, "engine.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("judge.language", langSlug),
		attribute.Int("judge.test_case_count", len(testCases)),
	)

	langCfg, ok := LanguageBySlug(langSlug)
	if !ok {
		return nil, ErrUnsupportedLanguage
	}

	workDir, err := os.MkdirTemp("", "judge-run-*")
	if err != nil {
		return nil, fmt.Errorf("judge: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	source := code
	if driver != "" {
		source = code + "\n" + driver
	}
	if err := os.WriteFile(filepath.Join(workDir, langCfg.SourceFilename), []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("judge: write source file: %w", err)
	}

	if langCfg.NeedsCompile {
		result, err := e.sandbox.Run(ctx, langCfg.Image, langCfg.CompileCommand, workDir, "", limits, limits.CompilationTimeout)
		if err != nil {
			return nil, fmt.Errorf("judge: compile: %w", err)
		}
		if result.ExitCode != 0 {
			return &ExecutionResult{
				Status:            ExecCompilationError,
				CompilationOutput: truncate(result.Stderr, 2000),
				TotalCount:        len(testCases),
			}, nil
		}
	}

	var testResults []TestResult
	switch langCfg.Strategy {
	case StrategyBatch:
		testResults, err = e.runBatch(ctx, langCfg, workDir, testCases, limits)
	default:
		testResults, err = e.runIndividual(ctx, langCfg, workDir, testCases, limits)
	}
	if err != nil {
		return nil, err
	}

	return aggregate(testResults, testCases), nil
}

// runBatch drives BATCH-strategy languages: one container fed every test
// case's input over stdin as a single JSON document, via the embedded
// python_batch_runner.py helper.
func (e *Engine) runBatch(ctx context.Context, langCfg LanguageConfig, workDir string, testCases []TestCase, limits ResourceLimits) ([]TestResult, error) {
	if err := os.WriteFile(filepath.Join(workDir, batchRunnerFilename), pythonBatchRunnerSource, 0o644); err != nil {
		return nil, fmt.Errorf("judge: write batch runner: %w", err)
	}

	inputs := make([]string, len(testCases))
	for i, tc := range testCases {
		inputs[i] = tc.Input
	}
	stdin, err := json.Marshal(map[string]interface{}{
		"test_cases": inputs,
		"timeout":    limits.TimeLimitPerTest.Seconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("judge: marshal batch input: %w", err)
	}

	runResult, err := e.sandbox.Run(ctx, langCfg.Image, []string{"python3", "/app/" + batchRunnerFilename}, workDir, string(stdin), limits, limits.MaxTotalTimeout)
	if err != nil {
		return nil, fmt.Errorf("judge: run batch: %w", err)
	}

	var batchResults []struct {
		Index     int     `json:"index"`
		Stdout    string  `json:"stdout"`
		Stderr    string  `json:"stderr"`
		ExitCode  int     `json:"exit_code"`
		RuntimeMs float64 `json:"runtime_ms"`
		MemoryKB  float64 `json:"memory_kb"`
	}
	if err := json.Unmarshal([]byte(runResult.Stdout), &batchResults); err != nil {
		// The batch runner itself didn't come back with anything usable
		// (e.g. killed before it could print): treat every test as TLE if
		// the container hit its wall-clock budget, RE otherwise.
		status := ExecRuntimeError
		if runResult.TimedOut {
			status = ExecTimeLimitExceeded
		}
		results := make([]TestResult, len(testCases))
		for i, tc := range testCases {
			results[i] = TestResult{TestCaseID: tc.ID, TestIndex: tc.Order, IsHidden: tc.IsHidden, Status: status, Input: tc.Input, Expected: tc.Expected}
		}
		return results, nil
	}

	results := make([]TestResult, len(testCases))
	for i, tc := range testCases {
		var br struct {
			Index     int
			Stdout    string
			Stderr    string
			ExitCode  int
			RuntimeMs float64
			MemoryKB  float64
		}
		if i < len(batchResults) {
			br.Stdout, br.Stderr, br.ExitCode, br.RuntimeMs, br.MemoryKB =
				batchResults[i].Stdout, batchResults[i].Stderr, batchResults[i].ExitCode, batchResults[i].RuntimeMs, batchResults[i].MemoryKB
		} else {
			br.ExitCode = timeoutExitCode
		}
		results[i] = classify(tc, br.Stdout, br.Stderr, br.ExitCode, br.RuntimeMs, br.MemoryKB, limits)
	}
	return results, nil
}

// runIndividual drives INDIVIDUAL-strategy (compiled) languages: one
// container per test case, stopping early and padding the remainder with
// synthetic TLE results once the submission's total time budget is spent.
func (e *Engine) runIndividual(ctx context.Context, langCfg LanguageConfig, workDir string, testCases []TestCase, limits ResourceLimits) ([]TestResult, error) {
	results := make([]TestResult, len(testCases))
	remaining := limits.MaxTotalTimeout

	for i, tc := range testCases {
		if remaining <= 0 {
			results[i] = TestResult{TestCaseID: tc.ID, TestIndex: tc.Order, IsHidden: tc.IsHidden, Status: ExecTimeLimitExceeded, Input: tc.Input, Expected: tc.Expected}
			continue
		}

		perTest := limits.TimeLimitPerTest
		if perTest > remaining {
			perTest = remaining
		}

		start := time.Now()
		runResult, err := e.sandbox.Run(ctx, langCfg.Image, langCfg.RunCommand, workDir, tc.Input, limits, perTest)
		elapsed := time.Since(start)
		remaining -= elapsed
		if err != nil {
			return nil, fmt.Errorf("judge: run test case %d: %w", i, err)
		}

		results[i] = classify(tc, runResult.Stdout, runResult.Stderr, runResult.ExitCode, runResult.RuntimeMs, 0, limits)
	}
	return results, nil
}

// classify turns one raw sandbox run into a TestResult, matching the
// timeout/runtime-error/output-comparison precedence a judge applies per
// test. Output comparison runs against the untruncated stdout so a
// truncated-for-storage record never affects the verdict; only the copies
// that land on the TestResult are capped to limits.MaxStdoutBytes/MaxStderrBytes.
func classify(tc TestCase, stdout, stderr string, exitCode int, runtimeMs, memoryKB float64, limits ResourceLimits) TestResult {
	tr := TestResult{
		TestCaseID: tc.ID,
		TestIndex:  tc.Order,
		IsHidden:   tc.IsHidden,
		Input:      tc.Input,
		Expected:   tc.Expected,
		Stdout:     truncate(stdout, limits.MaxStdoutBytes),
		Stderr:     truncate(stderr, limits.MaxStderrBytes),
		ExitCode:   exitCode,
		RuntimeMs:  runtimeMs,
		MemoryKB:   memoryKB,
	}
	switch {
	case exitCode == timeoutExitCode:
		tr.Status = ExecTimeLimitExceeded
	case exitCode != 0:
		tr.Status = ExecRuntimeError
	case !outputsMatch(tc.Expected, stdout):
		tr.Status = ExecWrongAnswer
	default:
		tr.Status = ExecSuccess
	}
	return tr
}

// aggregate folds per-test results into one run verdict using precedence
// TLE > RE > WA > SUCCESS: the first failure of the most severe kind wins.
func aggregate(results []TestResult, testCases []TestCase) *ExecutionResult {
	out := &ExecutionResult{TestResults: results, TotalCount: len(testCases)}

	var worst ExecStatus = ExecSuccess
	rank := map[ExecStatus]int{
		ExecSuccess:           0,
		ExecWrongAnswer:       1,
		ExecRuntimeError:      2,
		ExecTimeLimitExceeded: 3,
	}
	for _, r := range results {
		if r.Status == ExecSuccess {
			out.PassedCount++
		}
		if rank[r.Status] > rank[worst] {
			worst = r.Status
		}
	}
	out.Status = worst
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
