package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"judgecore/internal/metrics"
)

// ProblemLookup resolves the problem reference data a submission needs:
// whether it exists, and whether its language needs a driver stub.
type ProblemLookup interface {
	GetProblem(ctx context.Context, problemID int64) (*Problem, error)
}

// languageRecord is the slice of the languages table the Submission Service
// needs to validate a submission before it ever reaches a sandbox.
type languageRecord struct {
	ID       int64
	Slug     string
	IsActive bool
}

// Service is the Submission Service: it validates a submission request,
// persists the initial row, and hands the work to the Job Queue. It never
// touches a sandbox itself.
type Service struct {
	db       *pgxpool.Pool
	cache    *TestCaseCache
	queue    *Queue
	problems ProblemLookup
	metrics  *metrics.ApplicationMetrics
}

// NewService builds a Submission Service.
func NewService(db *pgxpool.Pool, cache *TestCaseCache, queue *Queue, problems ProblemLookup) *Service {
	return &Service{db: db, cache: cache, queue: queue, problems: problems, metrics: metrics.NewApplicationMetrics()}
}

// CreateSubmission validates a submission request, persists it as PENDING,
// and enqueues it for judging. It returns the created Submission.
// submissionContext selects the ResourceLimits preset the Judge Worker will
// run it under ("default", "contest", or "practice"); an empty string is
// normalized to "default".
func (s *Service) CreateSubmission(ctx context.Context, userID, problemID, languageID int64, code, submissionContext string) (*Submission, error) {
	tracer := otel.Tracer("judge-service")
	ctx, span := tracer.Start(ctx, "service.create_submission")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("judge.user_id", userID),
		attribute.Int64("judge.problem_id", problemID),
		attribute.Int64("judge.language_id", languageID),
	)

	if submissionContext == "" {
		submissionContext = string(ContextDefault)
	}

	problem, err := s.problems.GetProblem(ctx, problemID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lang, err := s.getLanguage(ctx, languageID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !lang.IsActive {
		return nil, ErrLanguageInactive
	}

	testCases, err := s.cache.Get(ctx, problem.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("judge: load test cases: %w", err)
	}

	submission := &Submission{
		UserID:     userID,
		ProblemID:  problemID,
		LanguageID: languageID,
		Code:       code,
		Context:    submissionContext,
		Status:     StatusPending,
		TotalCount: len(testCases),
		CreatedAt:  time.Now(),
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO submissions (user_id, problem_id, language_id, code, context, status, total_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, submission.UserID, submission.ProblemID, submission.LanguageID, submission.Code, submission.Context,
		submission.Status, submission.TotalCount, submission.CreatedAt).Scan(&submission.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("judge: create submission record: %w", err)
	}
	span.SetAttributes(attribute.Int64("judge.submission_id", submission.ID))

	if err := s.queue.Enqueue(ctx, submission.ID); err != nil {
		// The row stays PENDING: nothing picked it up, so the recovery
		// sweep will re-enqueue it once its staleness threshold passes.
		span.RecordError(err)
		return nil, fmt.Errorf("judge: enqueue submission: %w", err)
	}
	s.metrics.IncrementSubmissions(lang.Slug)

	return submission, nil
}

// GetSubmission loads one submission, scoped to its owner.
func (s *Service) GetSubmission(ctx context.Context, submissionID, userID int64) (*Submission, error) {
	var sub Submission
	var results []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, problem_id, language_id, code, context, status, passed, passed_count, total_count, results, created_at
		FROM submissions
		WHERE id = $1 AND user_id = $2
	`, submissionID, userID).Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.LanguageID, &sub.Code, &sub.Context,
		&sub.Status, &sub.Passed, &sub.PassedCount, &sub.TotalCount, &results, &sub.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("judge: get submission: %w", err)
	}
	sub.Results = decodeResults(results)
	return &sub, nil
}

// ListSubmissions returns a user's submissions, most recent first.
func (s *Service) ListSubmissions(ctx context.Context, userID int64, limit, offset int) ([]Submission, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, problem_id, language_id, context, status, passed, passed_count, total_count, created_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("judge: list submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.LanguageID, &sub.Context,
			&sub.Status, &sub.Passed, &sub.PassedCount, &sub.TotalCount, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("judge: scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Service) getLanguage(ctx context.Context, languageID int64) (*languageRecord, error) {
	var lang languageRecord
	err := s.db.QueryRow(ctx, `SELECT id, slug, is_active FROM languages WHERE id = $1`, languageID).
		Scan(&lang.ID, &lang.Slug, &lang.IsActive)
	if err == pgx.ErrNoRows {
		return nil, ErrLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("judge: get language: %w", err)
	}
	return &lang, nil
}

func decodeResults(raw []byte) []map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var results []map[string]interface{}
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil
	}
	return results
}
