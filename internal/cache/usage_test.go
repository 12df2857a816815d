package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/a2a-swap/internal/approval"
)

func TestNewUsageStore_NilClient(t *testing.T) {
	_, err := NewUsageStore(nil)
	assert.Error(t, err)
}

func TestMemberAmount(t *testing.T) {
	n, err := memberAmount(usageMember(time.Now(), 900))
	require.NoError(t, err)
	assert.Equal(t, uint64(900), n)
	assert.NotEqual(t, usageMember(time.Unix(1, 0), 5), usageMember(time.Unix(1, 0), 5))

	_, err = memberAmount("garbage")
	assert.Error(t, err)
}

func TestUsageStore_DailyLimitAcrossGates(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	opts := approval.Options{Policy: approval.PolicyConfig{DailyLimit: 1_000}}

	approved := 0
	for i := 0; i < 5; i++ {
		store, err := NewUsageStore(client)
		require.NoError(t, err)
		opts.Usage = store
		g, err := approval.New(approval.ModePolicy, opts)
		require.NoError(t, err)
		if g.Approve(ctx, approval.Request{TokenIn: "SOL", AmountIn: 900}) == nil {
			approved++
		}
	}
	assert.Equal(t, 1, approved)

	store, err := NewUsageStore(client)
	require.NoError(t, err)
	used, err := store.Usage(ctx, "SOL", approval.DailyWindow, time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint64(900), used)

	ttl, err := client.PTTL(ctx, usageKey("SOL")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestUsageStore_WindowRolls(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewUsageStore(client)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	_, ok, err := store.Reserve(ctx, "USDC", 800, 1_000, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	used, ok, err := store.Reserve(ctx, "USDC", 800, 1_000, time.Hour, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, used)

	used, ok, err = store.Reserve(ctx, "USDC", 300, 1_000, time.Hour, now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(800), used)
}
