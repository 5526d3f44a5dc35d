package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestCaseCacheKey(t *testing.T) {
	assert.Equal(t, "cache:testcases:42", testCaseCacheKey(42))
	assert.NotEqual(t, testCaseCacheKey(1), testCaseCacheKey(2), "testCaseCacheKey should differ per problem")
}

func TestStatusKeys(t *testing.T) {
	assert.Equal(t, "sub:status:7", statusSnapshotKey(7))
	assert.Equal(t, "submission:7", statusChannel(7))
	assert.NotEqual(t, statusSnapshotKey(7), statusChannel(7), "snapshot key and pub/sub channel name must not collide")
}
