package trail

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) LoadAll(ctx context.Context) (Collection, error) {
	body, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trails: %w", err)
	}
	return decodeCollection(body)
}

func (s *RedisStore) SaveAll(ctx context.Context, trails Collection) error {
	body, err := encodeCollection(trails)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, body, 0).Err(); err != nil {
		return fmt.Errorf("save trails: %w", err)
	}
	return nil
}
