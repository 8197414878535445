package cart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis returns a client whose every command fails fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestMergeGuestCartToUser_StoreFailureIsNotSwallowed(t *testing.T) {
	svc := NewService(nil, unreachableRedis(), nil)

	// A transient Redis outage must surface, not silently skip the merge —
	// otherwise the user's guest cart would be lost without anyone knowing.
	err := svc.MergeGuestCartToUser(context.Background(), 7, "session-abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge")
}

func TestMergeGuestCartToUser_NoSessionIsNoop(t *testing.T) {
	svc := NewService(nil, unreachableRedis(), nil)

	// Without a session there is no guest cart to even look for.
	assert.NoError(t, svc.MergeGuestCartToUser(context.Background(), 7, ""))
}
