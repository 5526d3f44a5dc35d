// Package problem resolves the problem reference data the judge core needs:
// that a problem exists, and the function name (if any) a submission's
// driver stub should wrap. Problem/category/difficulty CRUD lives outside
// this judging-focused slice of the platform.
package problem

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"judgecore/internal/judge"
	"judgecore/pkg/database"
)

// Store looks up problems by ID for the Submission Service and Judge Worker.
type Store struct {
	db *database.DB
}

// NewStore builds a problem Store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// GetProblem implements judge.ProblemLookup.
func (s *Store) GetProblem(ctx context.Context, problemID int64) (*judge.Problem, error) {
	var p judge.Problem
	var functionName *string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, function_name FROM problems WHERE id = $1
	`, problemID).Scan(&p.ID, &functionName)
	if err == pgx.ErrNoRows {
		return nil, judge.ErrProblemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("problem: get problem %d: %w", problemID, err)
	}
	if functionName != nil {
		p.FunctionName = *functionName
	}
	return &p, nil
}
