package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedisStore constructs a redis-backed Store. Redis errors degrade to a
// cache miss so an unhealthy redis never blocks page rendering.
func NewRedisStore(addr, password string, db int, timeout time.Duration, logger *slog.Logger) (Store, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &redisStore{
		client:  client,
		logger:  logger,
		prefix:  "edge:pages:",
		timeout: timeout,
	}, nil
}

func (s *redisStore) Get(ctx context.Context, namespace, key string) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.prefix+storeKey(namespace, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logRedisError("get", err)
		}
		return nil, ErrMiss
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logRedisError("decode", err)
		return nil, ErrMiss
	}
	return &entry, nil
}

func (s *redisStore) Set(ctx context.Context, namespace, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+storeKey(namespace, key), raw, ttl).Err(); err != nil {
		s.logRedisError("set", err)
		return err
	}
	return nil
}

// Ping reports backing-store health for the service health endpoint.
func (s *redisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *redisStore) logRedisError(op string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error("redis page cache error", "op", op, "error", err)
}
