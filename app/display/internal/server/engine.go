package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_flow/app/display/internal/conf"
	"github.com/iWorld-y/report_flow/app/display/internal/data"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	rfLogger "github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/metrics"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/workspace"
)

// NewAppConfig 将 internal/conf.App 转换为 pkg/config.Config
func NewAppConfig(c *conf.App, logger log.Logger) (*config.Config, error) {
	cfg := &config.Config{}
	if c != nil {
		if c.Llm != nil {
			cfg.LLM = config.LLMConfig{
				BaseURL: c.Llm.BaseUrl,
				APIKey:  c.Llm.ApiKey,
				Model:   c.Llm.Model,
				Timeout: c.Llm.Timeout,
			}
		}
		if c.Log != nil {
			cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
		}
		if c.Concurrency != nil {
			cfg.Concurrency = config.ConcurrencyConfig{
				QPS: int(c.Concurrency.Qps),
				RPM: int(c.Concurrency.Rpm),
			}
		}
		if c.Store != nil {
			cfg.Store = storeConfig(c.Store)
		}
		if c.Tracking != nil {
			cfg.Tracking.HistoryLimit = int(c.Tracking.HistoryLimit)
		}
		if c.Chat != nil {
			cfg.Chat.HistoryTurns = int(c.Chat.HistoryTurns)
		}
		if c.History != nil {
			cfg.History.ConfirmDelete = c.History.ConfirmDelete
		}
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()

	// 初始化日志
	if err := rfLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init report_flow logger: %v", err)
		_ = rfLogger.InitLogger("info", "") // 降级处理
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func storeConfig(s *conf.Store) config.StoreConfig {
	sc := config.StoreConfig{Driver: s.Driver, Key: s.Key, Dir: s.Dir}
	if s.Postgres != nil {
		sc.Postgres = config.PostgresConfig{
			Host:     s.Postgres.Host,
			Port:     int(s.Postgres.Port),
			User:     s.Postgres.User,
			Password: s.Postgres.Password,
			Name:     s.Postgres.Name,
		}
	}
	if s.Redis != nil {
		sc.Redis = config.RedisConfig{Addr: s.Redis.Addr, Password: s.Redis.Password, DB: int(s.Redis.Db)}
	}
	if s.Mongo != nil {
		sc.Mongo = config.MongoConfig{URI: s.Mongo.Uri, Database: s.Mongo.Database, Collection: s.Mongo.Collection}
	}
	return sc
}

// NewAnalysisClient 初始化模型客户端
func NewAnalysisClient(cfg *config.Config, logger log.Logger) (*analysis.Client, error) {
	client, err := analysis.NewClientFromConfig(context.Background(), cfg)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init analysis client: %v", err)
		return nil, err
	}
	metrics.Register()
	return client, nil
}

// NewWorkspace 组合存储和各页面控制器
func NewWorkspace(client *analysis.Client, d *data.Data, cfg *config.Config) *workspace.Workspace {
	return workspace.New(client, d.Store, cfg)
}
