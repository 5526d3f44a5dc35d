package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"judgecore/internal/metrics"
)

// dequeueTimeout bounds each blocking pop so the worker's loop can still
// observe context cancellation during a graceful shutdown instead of
// blocking on Redis forever.
const dequeueTimeout = 5 * time.Second

// Worker is the Judge Worker: it dequeues submission IDs, runs them through
// the Execution Engine, and persists and publishes the result.
type Worker struct {
	ID       string
	db       *pgxpool.Pool
	queue    *Queue
	cache    *TestCaseCache
	status   *StatusChannel
	engine   *Engine
	problems ProblemLookup
	metrics  *metrics.JudgeMetrics
}

// NewWorker builds a Judge Worker.
func NewWorker(id string, db *pgxpool.Pool, queue *Queue, cache *TestCaseCache, status *StatusChannel, engine *Engine, problems ProblemLookup) *Worker {
	return &Worker{ID: id, db: db, queue: queue, cache: cache, status: status, engine: engine, problems: problems, metrics: metrics.NewJudgeMetrics()}
}

// Run blocks, dequeuing and judging submissions until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("judge worker %s started", w.ID)
	for {
		select {
		case <-ctx.Done():
			log.Printf("judge worker %s stopping", w.ID)
			return
		default:
		}

		submissionID, ok, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			log.Printf("judge worker %s: dequeue error: %v", w.ID, err)
			continue
		}
		if !ok {
			if size, err := w.queue.Len(ctx); err == nil {
				w.metrics.SetQueueSize(queueKey, int(size))
			}
			continue
		}

		if err := w.process(ctx, submissionID); err != nil {
			log.Printf("judge worker %s: submission %d: %v", w.ID, submissionID, err)
		}
	}
}

// process judges one submission end to end. Once the submission is RUNNING,
// a failed problem lookup, test-case lookup or execution is recorded against
// the row as a runtime error rather than propagated, so one bad submission
// never wedges the worker loop. A failure to write the RUNNING transition or
// the final verdict is returned to the caller.
func (w *Worker) process(ctx context.Context, submissionID int64) error {
	tracer := otel.Tracer("judge-worker")
	ctx, span := tracer.Start(ctx, "worker.process_submission")
	defer span.End()
	span.SetAttributes(attribute.Int64("judge.submission_id", submissionID))
	start := time.Now()

	sub, langSlug, err := w.loadSubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if sub.Status != StatusPending {
		// Already picked up (or recovered) by another worker; this is the
		// idempotence guard against a submission being judged twice.
		return nil
	}

	if err := w.transition(ctx, submissionID, StatusRunning, nil); err != nil {
		span.RecordError(err)
		return err
	}

	problem, err := w.problems.GetProblem(ctx, sub.ProblemID)
	if err != nil {
		w.fail(ctx, submissionID, fmt.Sprintf("problem lookup failed: %v", err))
		return nil
	}

	testCases, err := w.cache.Get(ctx, sub.ProblemID)
	if err != nil {
		w.fail(ctx, submissionID, fmt.Sprintf("test case lookup failed: %v", err))
		return nil
	}
	if len(testCases) == 0 {
		return w.finish(ctx, submissionID, &ExecutionResult{Status: ExecSuccess, TotalCount: 0})
	}

	driver, _ := GenerateDriver(langSlug, problem.FunctionName)

	limits := LimitsForContext(SubmissionContext(sub.Context))
	result, err := w.engine.Run(ctx, langSlug, sub.Code, driver, testCases, limits)
	if err != nil {
		w.fail(ctx, submissionID, fmt.Sprintf("execution failed: %v", err))
		return nil
	}

	for _, tr := range result.TestResults {
		w.publishTestResult(ctx, submissionID, tr, result)
	}

	w.metrics.ObserveTaskDuration(langSlug, time.Since(start))
	return w.finish(ctx, submissionID, result)
}

func (w *Worker) loadSubmission(ctx context.Context, submissionID int64) (*Submission, string, error) {
	var sub Submission
	var langSlug string
	err := w.db.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.problem_id, s.language_id, s.code, s.context, s.status, l.slug
		FROM submissions s
		JOIN languages l ON l.id = s.language_id
		WHERE s.id = $1
	`, submissionID).Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.LanguageID, &sub.Code, &sub.Context, &sub.Status, &langSlug)
	if err != nil {
		return nil, "", fmt.Errorf("judge: load submission %d: %w", submissionID, err)
	}
	return &sub, langSlug, nil
}

func (w *Worker) transition(ctx context.Context, submissionID int64, status Status, results []map[string]interface{}) error {
	var resultsJSON []byte
	if results != nil {
		resultsJSON, _ = json.Marshal(results)
	}
	_, err := w.db.Exec(ctx, `UPDATE submissions SET status = $1, results = COALESCE($2, results) WHERE id = $3`,
		status, nullIfEmpty(resultsJSON), submissionID)
	if err != nil {
		return fmt.Errorf("judge: update submission %d status: %w", submissionID, err)
	}
	w.status.Publish(ctx, submissionID, map[string]interface{}{"type": "status", "submission_id": submissionID, "status": status})
	return nil
}

func (w *Worker) publishTestResult(ctx context.Context, submissionID int64, tr TestResult, running *ExecutionResult) {
	index, passedSoFar := 0, 0
	for i, r := range running.TestResults {
		if r.Status == ExecSuccess {
			passedSoFar++
		}
		if r.TestCaseID == tr.TestCaseID {
			index = i
			break
		}
	}
	w.status.Publish(ctx, submissionID, map[string]interface{}{
		"type":          "test_result",
		"submission_id": submissionID,
		"test_index":    index,
		"test_status":   tr.Status,
		"runtime_ms":    tr.RuntimeMs,
		"passed_so_far": passedSoFar,
		"total_so_far":  index + 1,
	})
}

// buildResultDetails turns a run's per-test results into the JSON blob stored
// on the submission row, redacting a hidden test case's input/expected/actual
// output/stderr so a client can never recover it from the API response.
func buildResultDetails(result *ExecutionResult) []map[string]interface{} {
	details := make([]map[string]interface{}, 0, len(result.TestResults))
	for _, tr := range result.TestResults {
		d := map[string]interface{}{
			"test_case_id": tr.TestCaseID,
			"order":        tr.TestIndex,
			"is_hidden":    tr.IsHidden,
			"status":       tr.Status,
			"runtime_ms":   tr.RuntimeMs,
			"memory_kb":    tr.MemoryKB,
			"exit_code":    tr.ExitCode,
		}
		if !tr.IsHidden {
			d["input"] = truncate(tr.Input, 500)
			d["expected_output"] = truncate(tr.Expected, 500)
			d["actual_output"] = truncate(tr.Stdout, 500)
			d["stderr"] = truncate(tr.Stderr, 500)
		}
		details = append(details, d)
	}
	if result.CompilationOutput != "" {
		details = append([]map[string]interface{}{{"compilation_error": truncate(result.CompilationOutput, 2000)}}, details...)
	}
	return details
}

// finish persists the final verdict (with hidden-test-case redaction) and
// publishes the terminal status event.
func (w *Worker) finish(ctx context.Context, submissionID int64, result *ExecutionResult) error {
	status := MapExecStatus(result.Status)
	passed := status == StatusAccepted

	details := buildResultDetails(result)

	resultsJSON, _ := json.Marshal(details)
	_, err := w.db.Exec(ctx, `
		UPDATE submissions
		SET status = $1, passed = $2, passed_count = $3, total_count = $4, results = $5
		WHERE id = $6
	`, status, passed, result.PassedCount, result.TotalCount, resultsJSON, submissionID)
	if err != nil {
		return fmt.Errorf("judge: persist submission %d result: %w", submissionID, err)
	}
	w.metrics.IncrementTasksProcessed(string(status))

	w.status.Publish(ctx, submissionID, map[string]interface{}{
		"type":          "final",
		"submission_id": submissionID,
		"status":        status,
		"passed":        passed,
		"passed_count":  result.PassedCount,
		"total_count":   result.TotalCount,
	})
	return nil
}

func (w *Worker) fail(ctx context.Context, submissionID int64, message string) {
	resultsJSON, _ := json.Marshal([]map[string]interface{}{{"error": message}})
	w.db.Exec(ctx, `UPDATE submissions SET status = $1, results = $2 WHERE id = $3`, StatusRuntimeError, resultsJSON, submissionID)
	w.metrics.IncrementTasksProcessed(string(StatusRuntimeError))
	w.status.Publish(ctx, submissionID, map[string]interface{}{
		"type":          "final",
		"submission_id": submissionID,
		"status":        StatusRuntimeError,
		"error":         message,
	})
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
