package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/models"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
)

// base58 signatures and hex hashes both fit
var txHashRe = regexp.MustCompile(`^[0-9a-zA-Z]{1,128}$`)

// ReceiptStore keeps settlement receipts in Redis, one key per transaction.
type ReceiptStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewReceiptStore(client redis.Cmdable, ttl time.Duration) (*ReceiptStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &ReceiptStore{client: client, ttl: ttl}, nil
}

// NewRedisClient dials addr and checks it answers PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func ValidateTxHash(tx string) error {
	if !txHashRe.MatchString(tx) {
		return fmt.Errorf("invalid transaction hash")
	}
	return nil
}

func (s *ReceiptStore) SaveReceipt(ctx context.Context, r *models.SettlementReceipt) (bool, error) {
	if err := ValidateTxHash(r.TxHash); err != nil {
		return false, err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("marshal receipt: %w", err)
	}
	created, err := s.client.SetNX(ctx, receiptKey(r.TxHash), b, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("save receipt: %w", err)
	}
	return created, nil
}

func (s *ReceiptStore) GetReceipt(ctx context.Context, txHash string) (*models.SettlementReceipt, error) {
	if err := ValidateTxHash(txHash); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, receiptKey(txHash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}

	var r models.SettlementReceipt
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &r, nil
}

func (s *ReceiptStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client when the store owns a closable one.
func (s *ReceiptStore) Close() error {
	if c, ok := s.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func receiptKey(tx string) string {
	return constants.RedisKeyReceiptPrefix + tx
}
