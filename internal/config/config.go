package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Dispatch DispatchConfig
	Report   ReportConfig
	Log      LogConfig
}

type AppConfig struct {
	Name string
	Port string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// QueueConfig names the transport channels. Names are configuration,
// not protocol.
type QueueConfig struct {
	Group          string
	OrderQueue     string
	TransportQueue string
	UpdateBuffer   int
}

type DispatchConfig struct {
	UnitNames []string
	MinDelay  time.Duration
	MaxDelay  time.Duration
}

type ReportConfig struct {
	Interval time.Duration
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr
}

// Load reads configuration from an optional config file and
// WAREHOUSE_-prefixed environment variables, falling back to built-in
// defaults.
// Priority (highest to lowest):
// 1. Environment variables (e.g. WAREHOUSE_REDIS_ADDR)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("WAREHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "warehouse-sim")
	v.SetDefault("app.port", ":8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("queue.group", "warehouse")
	v.SetDefault("queue.order_queue", "order_queue")
	v.SetDefault("queue.transport_queue", "transport_queue")
	v.SetDefault("queue.update_buffer", 100)
	v.SetDefault("dispatch.unit_names", []string{"Forklift A", "Forklift B", "Forklift C"})
	v.SetDefault("dispatch.min_delay", 5*time.Second)
	v.SetDefault("dispatch.max_delay", 8*time.Second)
	v.SetDefault("report.interval", 20*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Port: v.GetString("app.port"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			PoolSize: v.GetInt("redis.pool_size"),
		},
		Queue: QueueConfig{
			Group:          v.GetString("queue.group"),
			OrderQueue:     v.GetString("queue.order_queue"),
			TransportQueue: v.GetString("queue.transport_queue"),
			UpdateBuffer:   v.GetInt("queue.update_buffer"),
		},
		Dispatch: DispatchConfig{
			UnitNames: v.GetStringSlice("dispatch.unit_names"),
			MinDelay:  v.GetDuration("dispatch.min_delay"),
			MaxDelay:  v.GetDuration("dispatch.max_delay"),
		},
		Report: ReportConfig{
			Interval: v.GetDuration("report.interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if len(cfg.Dispatch.UnitNames) == 0 {
		return nil, fmt.Errorf("dispatch.unit_names must not be empty")
	}
	if cfg.Dispatch.MaxDelay < cfg.Dispatch.MinDelay {
		return nil, fmt.Errorf("dispatch.max_delay %v is below dispatch.min_delay %v",
			cfg.Dispatch.MaxDelay, cfg.Dispatch.MinDelay)
	}
	if cfg.Report.Interval <= 0 {
		return nil, fmt.Errorf("report.interval must be positive")
	}

	return cfg, nil
}
