package settings

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "condense:settings:"

// Redis owns the connection shared by every scoped RedisStore.
type Redis struct {
	client redis.UniversalClient
}

// RedisStore keeps one scope's settings in a single Redis hash.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedis connects to addr, which is either host:port or a redis://,
// rediss:// or redis-sentinel:// URL.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	c := redis.NewUniversalClient(opts)
	if err = c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: c}, nil
}

func (r *Redis) Scope(scope string) *RedisStore {
	return &RedisStore{client: r.client, key: redisKeyPrefix + scope}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	items := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return items, nil
	}

	values, err := s.client.HMGet(ctx, s.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", s.key, err)
	}

	for i, v := range values {
		if str, ok := v.(string); ok {
			items[keys[i]] = str
		}
	}

	return items, nil
}

func (s *RedisStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}

	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", s.key, err)
	}

	return nil
}

func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	switch u.Scheme {
	case "redis", "rediss":
		dbStr := strings.TrimPrefix(u.Path, "/")
		if dbStr == "" {
			dbStr = q.Get("db")
		}
		if dbStr != "" {
			db, atoiErr := strconv.Atoi(dbStr)
			if atoiErr != nil {
				return nil, fmt.Errorf("invalid db: %w", atoiErr)
			}
			opts.DB = db
		}
		if u.Scheme == "rediss" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	case "redis-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if dbStr := q.Get("db"); dbStr != "" {
			db, atoiErr := strconv.Atoi(dbStr)
			if atoiErr != nil {
				return nil, fmt.Errorf("invalid db: %w", atoiErr)
			}
			opts.DB = db
		}
	default:
		return nil, fmt.Errorf("invalid URL scheme: %s", u.Scheme)
	}

	return opts, nil
}
