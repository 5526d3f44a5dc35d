package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// statusSnapshotTTL bounds how long a disconnected viewer can reconnect and
// still see the last status without re-subscribing mid-stream.
const statusSnapshotTTL = 10 * time.Minute

func statusSnapshotKey(submissionID int64) string {
	return fmt.Sprintf("sub:status:%d", submissionID)
}

func statusChannel(submissionID int64) string {
	return fmt.Sprintf("submission:%d", submissionID)
}

// StatusChannel fans a submission's progress out to any number of live
// viewers over Redis Pub/Sub, while also keeping a snapshot so a viewer that
// connects mid-run immediately sees the latest state instead of waiting for
// the next event.
type StatusChannel struct {
	redis *redis.Client
}

// NewStatusChannel builds a Status Channel.
func NewStatusChannel(redisClient *redis.Client) *StatusChannel {
	return &StatusChannel{redis: redisClient}
}

// Publish writes payload as the submission's latest snapshot and then
// publishes it to subscribers. The snapshot write happens first so that a
// viewer who subscribes between the SET and the PUBLISH still picks up the
// event on its next Get call rather than losing it entirely.
func (s *StatusChannel) Publish(ctx context.Context, submissionID int64, payload map[string]interface{}) error {
	tracer := otel.Tracer("judge-status")
	ctx, span := tracer.Start(ctx, "status.publish")
	defer span.End()
	span.SetAttributes(attribute.Int64("judge.submission_id", submissionID))

	encoded, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("judge: marshal status payload: %w", err)
	}

	if err := s.redis.Set(ctx, statusSnapshotKey(submissionID), encoded, statusSnapshotTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("judge: set status snapshot: %w", err)
	}

	if err := s.redis.Publish(ctx, statusChannel(submissionID), encoded).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("judge: publish status: %w", err)
	}
	return nil
}

// Snapshot returns the last status payload written for a submission, if any
// is still within its TTL.
func (s *StatusChannel) Snapshot(ctx context.Context, submissionID int64) ([]byte, bool, error) {
	val, err := s.redis.Get(ctx, statusSnapshotKey(submissionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Subscribe returns a live subscription to a submission's status channel.
// Callers must close it when done.
func (s *StatusChannel) Subscribe(ctx context.Context, submissionID int64) *redis.PubSub {
	return s.redis.Subscribe(ctx, statusChannel(submissionID))
}
