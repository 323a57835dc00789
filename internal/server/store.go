package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"backend-trailkeeper/internal/config"
	"backend-trailkeeper/internal/trail"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Backends are the optional connections the server may persist trails to.
type Backends struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	SQLite   *sql.DB
}

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
	StoreAuto     = "auto"
)

var pingRedisFn = func(ctx context.Context, rdb *redis.Client) error { return rdb.Ping(ctx).Err() }

// selectStore picks the trail store named by cfg.TrailStore. In auto mode the
// first reachable backend wins, in the order postgres, redis, sqlite, memory.
func selectStore(ctx context.Context, cfg config.Config, b Backends) (trail.Store, string, error) {
	key := cfg.TrailCollectionKey
	if key == "" {
		key = "trails"
	}

	switch cfg.TrailStore {
	case StorePostgres:
		st, err := postgresStore(ctx, b, key)
		return st, StorePostgres, err
	case StoreRedis:
		st, err := redisStore(ctx, b, key)
		return st, StoreRedis, err
	case StoreSQLite:
		st, err := sqliteStore(ctx, b, key)
		return st, StoreSQLite, err
	case StoreMemory:
		return trail.NewMemoryStore(), StoreMemory, nil
	case StoreAuto, "":
	default:
		return nil, "", fmt.Errorf("unknown trail store %q", cfg.TrailStore)
	}

	if st, err := postgresStore(ctx, b, key); err == nil {
		return st, StorePostgres, nil
	} else if b.Postgres != nil {
		log.Printf("postgres trail store unavailable: %v", err)
	}
	if st, err := redisStore(ctx, b, key); err == nil {
		return st, StoreRedis, nil
	} else if b.Redis != nil {
		log.Printf("redis trail store unavailable: %v", err)
	}
	if st, err := sqliteStore(ctx, b, key); err == nil {
		return st, StoreSQLite, nil
	} else if b.SQLite != nil {
		log.Printf("sqlite trail store unavailable: %v", err)
	}
	return trail.NewMemoryStore(), StoreMemory, nil
}

func postgresStore(ctx context.Context, b Backends, key string) (trail.Store, error) {
	if b.Postgres == nil {
		return nil, fmt.Errorf("postgres not connected")
	}
	st := trail.NewPostgresStore(b.Postgres, key)
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return st, nil
}

func redisStore(ctx context.Context, b Backends, key string) (trail.Store, error) {
	if b.Redis == nil {
		return nil, fmt.Errorf("redis not configured")
	}
	if err := pingRedisFn(ctx, b.Redis); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return trail.NewRedisStore(b.Redis, key), nil
}

func sqliteStore(ctx context.Context, b Backends, key string) (trail.Store, error) {
	if b.SQLite == nil {
		return nil, fmt.Errorf("sqlite not configured")
	}
	st := trail.NewSQLiteStore(b.SQLite, key)
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return st, nil
}
