package factory

import (
	"context"
	"fmt"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv"
)

// NewBackend 根据配置创建存储实例
func NewBackend(ctx context.Context, cfg config.StoreConfig) (kv.Backend, error) {
	switch cfg.Driver {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "data"
		}
		b, err := kv.NewFile(dir)
		if err != nil {
			return nil, err
		}
		return b, nil

	case "memory":
		return kv.NewMemory(), nil

	case "postgres":
		if cfg.Postgres.Host == "" {
			return nil, fmt.Errorf("postgres host is missing")
		}
		b, err := kv.OpenPostgres(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		return b, nil

	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis addr is missing")
		}
		b, err := kv.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return b, nil

	case "mongo":
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri is missing")
		}
		b, err := kv.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
