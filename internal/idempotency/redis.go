package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// compareAndSet swaps KEYS[1] from ARGV[1] to ARGV[2], keeping its TTL.
const compareAndSet = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
	return 1
end
return 0
`

type redisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) Store {
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisStore) key(transactionID string) string {
	return s.prefix + transactionID
}

func (s *redisStore) Record(ctx context.Context, transactionID, outcome string) (string, bool, error) {
	if transactionID == "" {
		return "", false, ErrEmptyTransactionID
	}
	key := s.key(transactionID)

	ok, err := s.client.SetNX(ctx, key, outcome, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("record callback outcome: %w", err)
	}
	if ok {
		return outcome, true, nil
	}

	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, fmt.Errorf("recorded outcome for %s expired during read", transactionID)
	}
	if err != nil {
		return "", false, fmt.Errorf("read recorded outcome: %w", err)
	}
	return stored, false, nil
}

func (s *redisStore) Upgrade(ctx context.Context, transactionID, from, to string) (bool, error) {
	n, err := s.client.Eval(ctx, compareAndSet, []string{s.key(transactionID)}, from, to).Int64()
	if err != nil {
		return false, fmt.Errorf("upgrade callback outcome: %w", err)
	}
	return n == 1, nil
}

func (s *redisStore) Release(ctx context.Context, transactionID string) error {
	if err := s.client.Del(ctx, s.key(transactionID)).Err(); err != nil {
		return fmt.Errorf("release callback outcome: %w", err)
	}
	return nil
}
