package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// testCaseCacheTTL matches the upstream judging backend's test-case cache
// lifetime: long enough that a burst of submissions against the same
// problem shares one database round trip, short enough that an edited test
// case isn't served stale for long.
const testCaseCacheTTL = time.Hour

func testCaseCacheKey(problemID int64) string {
	return fmt.Sprintf("cache:testcases:%d", problemID)
}

// TestCaseCache fronts the test_cases table with Redis so a burst of
// submissions against one problem doesn't hammer the database.
type TestCaseCache struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

// NewTestCaseCache builds a Test-Case Cache.
func NewTestCaseCache(db *pgxpool.Pool, redisClient *redis.Client) *TestCaseCache {
	return &TestCaseCache{db: db, redis: redisClient}
}

// Get returns a problem's test cases in their stored order, serving from
// cache when present.
func (c *TestCaseCache) Get(ctx context.Context, problemID int64) ([]TestCase, error) {
	tracer := otel.Tracer("judge-cache")
	ctx, span := tracer.Start(ctx, "cache.get_test_cases")
	defer span.End()
	span.SetAttributes(attribute.Int64("judge.problem_id", problemID))

	key := testCaseCacheKey(problemID)
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var testCases []TestCase
		if jsonErr := json.Unmarshal([]byte(cached), &testCases); jsonErr == nil {
			span.SetAttributes(attribute.Bool("judge.cache_hit", true))
			return testCases, nil
		}
	}

	testCases, err := c.loadFromDB(ctx, problemID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if encoded, err := json.Marshal(testCases); err == nil {
		c.redis.Set(ctx, key, encoded, testCaseCacheTTL)
	}
	span.SetAttributes(attribute.Bool("judge.cache_hit", false))
	return testCases, nil
}

// Invalidate drops a problem's cached test cases, for callers that just
// edited them. The cache has no other writer-side invalidation: a stale
// entry only ever expires on its own TTL otherwise.
func (c *TestCaseCache) Invalidate(ctx context.Context, problemID int64) error {
	return c.redis.Del(ctx, testCaseCacheKey(problemID)).Err()
}

func (c *TestCaseCache) loadFromDB(ctx context.Context, problemID int64) ([]TestCase, error) {
	rows, err := c.db.Query(ctx, `
		SELECT id, input, expected_output, is_hidden, "order"
		FROM test_cases
		WHERE problem_id = $1
		ORDER BY "order" ASC
	`, problemID)
	if err != nil {
		return nil, fmt.Errorf("judge: query test cases: %w", err)
	}
	defer rows.Close()

	var testCases []TestCase
	for rows.Next() {
		var tc TestCase
		if err := rows.Scan(&tc.ID, &tc.Input, &tc.Expected, &tc.IsHidden, &tc.Order); err != nil {
			return nil, fmt.Errorf("judge: scan test case: %w", err)
		}
		testCases = append(testCases, tc)
	}
	return testCases, rows.Err()
}
