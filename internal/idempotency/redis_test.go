package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "idem:checkout:9876543210:abc", Key("9876543210:abc"))
}

func TestStoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	s := NewStore(rdb)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()

	ok, err := s.Reserve(ctx, "9876543210:abc", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)

	_, err = s.Result(ctx, "9876543210:abc")
	assert.Error(t, err)

	assert.Error(t, s.Complete(ctx, "9876543210:abc", "ORD1", time.Minute))
	assert.Error(t, s.Release(ctx, "9876543210:abc"))
	assert.Error(t, s.Ping(ctx))
}
