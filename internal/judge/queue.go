package judge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// queueKey is the FIFO list the Judge Worker blocks on. It carries nothing
// but a submission ID: the worker reloads the submission from Postgres
// before acting on it, so the queue never holds data that can go stale.
const queueKey = "judge:queue"

// Queue is the primary Job Queue: a plain Redis list with blocking pop
// semantics, so a worker sits idle with no polling until a submission
// arrives.
type Queue struct {
	redis *redis.Client
}

// NewQueue builds a Job Queue around a Redis client.
func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

// Enqueue appends a submission ID to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, submissionID int64) error {
	tracer := otel.Tracer("judge-queue")
	ctx, span := tracer.Start(ctx, "queue.enqueue")
	defer span.End()
	span.SetAttributes(attribute.Int64("judge.submission_id", submissionID))

	if err := q.redis.LPush(ctx, queueKey, submissionID).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("judge: enqueue submission: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout waiting for a submission ID, returning
// (0, false, nil) on a timeout with nothing queued.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (int64, bool, error) {
	result, err := q.redis.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("judge: dequeue submission: %w", err)
	}
	// BRPop returns [key, value]; the queue only ever holds one key.
	id, err := strconv.ParseInt(result[1], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("judge: parse queued submission id %q: %w", result[1], err)
	}
	return id, true, nil
}

// Len reports how many submissions are currently waiting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, queueKey).Result()
}

// Maintenance task type names, run through asynq rather than the primary
// queue: these are scheduled/periodic jobs, not per-submission work, so they
// don't belong on the same FIFO list a worker blocks against.
const (
	TaskTypeRecoverySweep = "judge:maintenance:recovery_sweep"
	TaskTypePing          = "judge:maintenance:ping"
)

// MaintenanceQueue wraps asynq for scheduled upkeep work: the recovery sweep
// for stuck submissions, and a ping task used to verify the worker fleet is
// alive. This is deliberately kept separate from the Redis-list submission
// queue above, whose ordering and blocking-pop semantics a priority task
// queue would only get in the way of.
type MaintenanceQueue struct {
	client *asynq.Client
	server *asynq.Server
}

// NewMaintenanceQueue builds a MaintenanceQueue against the given Redis
// address/password.
func NewMaintenanceQueue(addr, password string, db int) *MaintenanceQueue {
	opt := asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
	return &MaintenanceQueue{
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: 2,
			Queues:      map[string]int{"maintenance": 1},
		}),
	}
}

// Close releases the asynq client's connections.
func (m *MaintenanceQueue) Close() error {
	return m.client.Close()
}

// EnqueueRecoverySweep schedules a recovery sweep to run after delay.
func (m *MaintenanceQueue) EnqueueRecoverySweep(ctx context.Context, delay time.Duration) error {
	task := asynq.NewTask(TaskTypeRecoverySweep, nil)
	_, err := m.client.EnqueueContext(ctx, task, asynq.Queue("maintenance"), asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("judge: enqueue recovery sweep: %w", err)
	}
	return nil
}

// EnqueuePing enqueues a liveness-check task.
func (m *MaintenanceQueue) EnqueuePing(ctx context.Context) error {
	task := asynq.NewTask(TaskTypePing, nil)
	_, err := m.client.EnqueueContext(ctx, task, asynq.Queue("maintenance"))
	if err != nil {
		return fmt.Errorf("judge: enqueue ping: %w", err)
	}
	return nil
}

// RegisterHandlers wires recovery-sweep and ping handlers and starts serving
// the maintenance queue. Blocks until the server stops.
func (m *MaintenanceQueue) RegisterHandlers(sweep *Sweeper) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeRecoverySweep, func(ctx context.Context, _ *asynq.Task) error {
		return sweep.Run(ctx)
	})
	mux.HandleFunc(TaskTypePing, func(ctx context.Context, _ *asynq.Task) error {
		return nil
	})
	return m.server.Run(mux)
}

// Stop gracefully stops the maintenance server.
func (m *MaintenanceQueue) Stop() {
	m.server.Stop()
	m.server.Shutdown()
}
