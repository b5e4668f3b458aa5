package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStoreKey 报告集合的持久化键，键名中带有 schema 版本
const DefaultStoreKey = "reportflow_reports_v3"

// EnvAPIKey 设置后覆盖配置文件中的 llm.api_key
const EnvAPIKey = "REPORT_FLOW_LLM_API_KEY"

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Store       StoreConfig       `yaml:"store"`
	Tracking    TrackingConfig    `yaml:"tracking"`
	Chat        ChatConfig        `yaml:"chat"`
	History     HistoryConfig     `yaml:"history"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// Timeout 单次调用的超时时间，如 "90s"；为空表示不设置
	Timeout string `yaml:"timeout"`
}

// CallTimeout 解析 Timeout，无法解析时返回 0
func (c LLMConfig) CallTimeout() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置，RPM 为 0 时不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// StoreConfig 报告存储配置
type StoreConfig struct {
	// Driver 可选 file / memory / postgres / redis / mongo
	Driver   string         `yaml:"driver"`
	Key      string         `yaml:"key"`
	Dir      string         `yaml:"dir"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// PostgresConfig 数据库相关配置
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN 生成 lib/pq 连接串
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// TrackingConfig 计划-实绩追踪配置
type TrackingConfig struct {
	// HistoryLimit 作为历史上下文发送的最大报告数，0 表示全部
	HistoryLimit int `yaml:"history_limit"`
}

// ChatConfig 问答配置
type ChatConfig struct {
	// HistoryTurns 每次提问时回传给模型的历史对话条数，0 表示不回传
	HistoryTurns int `yaml:"history_turns"`
}

// HistoryConfig 历史管理配置
type HistoryConfig struct {
	// ConfirmDelete 为 true 时删除报告需要显式确认
	ConfirmDelete bool `yaml:"confirm_delete"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 填充未配置项的默认值
func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Key == "" {
		c.Store.Key = DefaultStoreKey
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "data"
	}
	if c.Store.Postgres.Port == 0 {
		c.Store.Postgres.Port = 5432
	}
	if c.Store.Mongo.Database == "" {
		c.Store.Mongo.Database = "report_flow"
	}
	if c.Store.Mongo.Collection == "" {
		c.Store.Mongo.Collection = "kv"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
}

// ApplyEnv 使用环境变量覆盖敏感配置
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.LLM.APIKey = key
	}
}

// Validate 校验必填配置
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("llm.timeout: %w", err)
		}
	}
	if c.Tracking.HistoryLimit < 0 {
		return fmt.Errorf("tracking.history_limit must not be negative")
	}
	if c.Chat.HistoryTurns < 0 {
		return fmt.Errorf("chat.history_turns must not be negative")
	}
	switch c.Store.Driver {
	case "file", "memory":
	case "postgres":
		if c.Store.Postgres.Host == "" {
			return fmt.Errorf("store.postgres.host is required")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}
	return nil
}
