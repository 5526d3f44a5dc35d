package judge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stuckPendingAge is how long a submission can sit in PENDING before the
// sweep assumes its enqueue was lost and retries it.
const stuckPendingAge = 2 * time.Minute

// stuckRunningAge is how long a submission can sit in RUNNING before the
// sweep assumes the worker that picked it up died mid-run.
const stuckRunningAge = 5 * time.Minute

// Sweeper recovers submissions that got stuck because a worker crashed
// after the PENDING->RUNNING transition, or because an enqueue never made
// it onto the Redis list in the first place. The queue and database are
// independent stores with no transactional link between them, so this sweep
// is the only thing that notices the two have drifted apart.
type Sweeper struct {
	db    *pgxpool.Pool
	queue *Queue
}

// NewSweeper builds a recovery Sweeper.
func NewSweeper(db *pgxpool.Pool, queue *Queue) *Sweeper {
	return &Sweeper{db: db, queue: queue}
}

// Run re-enqueues submissions stuck in PENDING past stuckPendingAge, and
// resets submissions stuck in RUNNING past stuckRunningAge back to PENDING,
// since a worker that held one that long is presumed dead; the next sweep
// cycle's recoverPending then re-enqueues it like any other stuck PENDING row.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.recoverPending(ctx); err != nil {
		return err
	}
	return s.recoverRunning(ctx)
}

func (s *Sweeper) recoverPending(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM submissions
		WHERE status = $1 AND created_at < $2
	`, StatusPending, time.Now().Add(-stuckPendingAge))
	if err != nil {
		return fmt.Errorf("judge: query stuck pending submissions: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("judge: scan stuck pending submission: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			log.Printf("sweep: failed to re-enqueue submission %d: %v", id, err)
			continue
		}
		log.Printf("sweep: re-enqueued stuck pending submission %d", id)
	}
	return nil
}

func (s *Sweeper) recoverRunning(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		UPDATE submissions
		SET status = $1
		WHERE status = $2 AND created_at < $3
	`, StatusPending, StatusRunning, time.Now().Add(-stuckRunningAge))
	if err != nil {
		return fmt.Errorf("judge: recover stuck running submissions: %w", err)
	}
	return nil
}
