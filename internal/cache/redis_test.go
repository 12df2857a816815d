package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/a2a-swap/internal/models"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())
	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestNewReceiptStore_NilClient(t *testing.T) {
	_, err := NewReceiptStore(nil, time.Hour)
	assert.Error(t, err)
}

func TestValidateTxHash(t *testing.T) {
	assert.NoError(t, ValidateTxHash("5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"))
	assert.NoError(t, ValidateTxHash("abc123"))
	assert.Error(t, ValidateTxHash(""))
	assert.Error(t, ValidateTxHash("tx:with*glob"))
}

func TestReceiptStore_SaveOnce(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewReceiptStore(client, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	r := &models.SettlementReceipt{
		TxHash:    "3xTx",
		Network:   "solana",
		PayTo:     "payee",
		Asset:     "usdc",
		Amount:    "1000",
		Resource:  "http://localhost/convert",
		SettledAt: time.Now().UTC().Truncate(time.Second),
	}
	created, err := store.SaveReceipt(ctx, r)
	require.NoError(t, err)
	assert.True(t, created)

	dup := *r
	dup.Amount = "2000"
	created, err = store.SaveReceipt(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := store.GetReceipt(ctx, "3xTx")
	require.NoError(t, err)
	assert.Equal(t, "1000", got.Amount)
	assert.True(t, r.SettledAt.Equal(got.SettledAt))

	ttl, err := client.TTL(ctx, receiptKey("3xTx")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestReceiptStore_NotFound(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewReceiptStore(client, time.Minute)
	require.NoError(t, err)

	_, err = store.GetReceipt(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrReceiptNotFound)
}
