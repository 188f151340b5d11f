package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/token"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares one credential between several processes, e.g. kiosk
// terminals that punch on behalf of the same account.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// RedisOptions describes how to reach the Redis server.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisStoreWithClient(client, opts.Namespace), nil
}

func NewRedisStoreWithClient(client *redis.Client, namespace string) *RedisStore {
	key := Key
	if namespace = strings.Trim(namespace, ":"); namespace != "" {
		key = namespace + ":" + Key
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil || (err == nil && value == "") {
		return "", oaerrors.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("[RedisStore Get] %w", err)
	}
	return value, nil
}

// Set stores the token and lets Redis expire it together with the token.
func (s *RedisStore) Set(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return oaerrors.Wrapf(oaerrors.ErrInvalidInput, "empty token")
	}

	var ttl time.Duration
	if claims, err := token.Decode(raw); err == nil {
		if remaining, ok := claims.ExpiresIn(token.NowTimeFunc()); ok && remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisStore Set] %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("[RedisStore Delete] %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
