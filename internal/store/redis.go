package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisOptions struct {
	rdb    *redis.Client
	prefix string
}

// OpenRedis conecta a Redis. Las opciones no expiran.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (Options, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return &redisOptions{rdb: rdb, prefix: prefix}, nil
}

func (s *redisOptions) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

func (s *redisOptions) Get(ctx context.Context, name string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", name, err)
	}
	return v, nil
}

func (s *redisOptions) Set(ctx context.Context, name string, value []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(name), value, 0).Err()
}

func (s *redisOptions) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *redisOptions) Close() error { return s.rdb.Close() }
