package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
)

const maxReserveAttempts = 5

var usageSeq atomic.Uint64

// UsageStore keeps approved swap volume in Redis, one sorted set per input
// token scored by approval time in milliseconds. It implements
// approval.UsageStore so separate CLI runs share one daily limit.
type UsageStore struct {
	client redis.UniversalClient
}

func NewUsageStore(client redis.UniversalClient) (*UsageStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &UsageStore{client: client}, nil
}

// Reserve adds amount to token's window when the total stays within limit.
// The read and the write run under WATCH so concurrent runs cannot both pass.
func (s *UsageStore) Reserve(ctx context.Context, token string, amount, limit uint64, window time.Duration, now time.Time) (uint64, bool, error) {
	key := usageKey(token)
	cutoff := now.Add(-window).UnixMilli()

	var used uint64
	var ok bool
	txf := func(tx *redis.Tx) error {
		var err error
		used, err = sumUsage(ctx, tx, key, cutoff)
		if err != nil {
			return err
		}
		ok = false
		if used+amount > limit || used+amount < used {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
			pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: usageMember(now, amount)})
			pipe.PExpire(ctx, key, window)
			return nil
		})
		if err == nil {
			ok = true
		}
		return err
	}

	for i := 0; i < maxReserveAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("reserve usage: %w", err)
		}
		return used, ok, nil
	}
	return 0, false, fmt.Errorf("reserve usage: %s kept changing", key)
}

func (s *UsageStore) Usage(ctx context.Context, token string, window time.Duration, now time.Time) (uint64, error) {
	used, err := sumUsage(ctx, s.client, usageKey(token), now.Add(-window).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	return used, nil
}

type zRanger interface {
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

// sumUsage totals members scored after cutoff.
func sumUsage(ctx context.Context, c zRanger, key string, cutoff int64) (uint64, error) {
	members, err := c.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, m := range members {
		amount, err := memberAmount(m)
		if err != nil {
			return 0, err
		}
		if total+amount < total {
			return ^uint64(0), nil
		}
		total += amount
	}
	return total, nil
}

// usageMember is "<unix nanos>:<pid>:<seq>:<amount>"; the prefix keeps
// equal amounts at the same instant distinct.
func usageMember(now time.Time, amount uint64) string {
	return fmt.Sprintf("%d:%d:%d:%d", now.UnixNano(), os.Getpid(), usageSeq.Add(1), amount)
}

func memberAmount(m string) (uint64, error) {
	i := strings.LastIndexByte(m, ':')
	if i < 0 {
		return 0, fmt.Errorf("malformed usage member %q", m)
	}
	return strconv.ParseUint(m[i+1:], 10, 64)
}

func usageKey(token string) string {
	return constants.RedisKeyUsagePrefix + strings.ToUpper(token)
}
