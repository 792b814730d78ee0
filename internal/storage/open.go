package storage

import (
	"context"
	"fmt"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/config"
)

// Open 根据配置创建 KV 后端；调用方负责 Close
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryKV(), nil
	case config.BackendLevelDB:
		return OpenLevelDB(cfg.Storage.LevelDBPath)
	case config.BackendRedis:
		client := NewRedisClient(&cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisKV(client, cfg.Redis.KeyPrefix), nil
	case config.BackendPostgres:
		db, err := NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		kv := NewPostgresKV(db, cfg.Database.Table)
		if err := kv.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
