package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/freightlane/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Security   SecurityConfig   `mapstructure:"security"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle"`
	Otp        OtpConfig        `mapstructure:"otp"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
	Events     EventsConfig     `mapstructure:"events"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
	// ShutdownTimeoutSeconds 停机时等待进行中请求与任务的上限
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置（令牌由外部认证服务签发，本服务只校验）
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	PoolSize int    `mapstructure:"pool_size"`
	// DialTimeoutSeconds 同时作为启动探活超时
	DialTimeoutSeconds int `mapstructure:"dial_timeout_seconds"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	OtpVerifyRateLimit  RateLimitConfig `mapstructure:"otp_verify_rate_limit"`
	OtpRequestRateLimit RateLimitConfig `mapstructure:"otp_request_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// LifecycleConfig 货源生命周期策略
type LifecycleConfig struct {
	// UnavailableReentryStatus 下架货源重新提交后的状态（pending / open_for_bid）
	UnavailableReentryStatus string `mapstructure:"unavailable_reentry_status"`
	// ShipperCancelAfterAward 货主能否在成交后（in_transit 之前）取消，关闭时仅管理员可取消
	ShipperCancelAfterAward bool `mapstructure:"shipper_cancel_after_award"`
}

// OtpConfig 行程验证码配置
type OtpConfig struct {
	CodeLength             int `mapstructure:"code_length"`
	MinValidityMinutes     int `mapstructure:"min_validity_minutes"`
	MaxValidityMinutes     int `mapstructure:"max_validity_minutes"`
	DefaultValidityMinutes int `mapstructure:"default_validity_minutes"`
	MaxAttempts            int `mapstructure:"max_attempts"`
	HashCost               int `mapstructure:"hash_cost"`
}

// ComplianceConfig 合规校验配置
type ComplianceConfig struct {
	ExpiringSoonDays int                            `mapstructure:"expiring_soon_days"`
	RecordCacheTTL   int                            `mapstructure:"record_cache_ttl_seconds"`
	Requirements     map[string]map[string][]string `mapstructure:"requirements"` // 承运方类型 -> 主体类型 -> 证件类型
}

// EventsConfig 实时事件配置
type EventsConfig struct {
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

// WebsocketConfig 推送连接配置
type WebsocketConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	WriteTimeoutSeconds int  `mapstructure:"write_timeout_seconds"`
	PongWaitSeconds     int  `mapstructure:"pong_wait_seconds"`
}

// KafkaConfig Kafka 事件投递配置
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 读取配置，FREIGHTLANE_CONFIG 可指定文件路径，解析失败时 panic
func Load() *Config {
	cfg, err := LoadFrom(os.Getenv("FREIGHTLANE_CONFIG"))
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// LoadFrom 按 文件 > 环境变量 > 默认值 的优先级合并配置
// path 为空时在当前目录、上级目录与 ./etc 中查找 config.yml
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("../")
		v.AddConfigPath("./etc")
	}
	SetDefaults(v)

	// server.port -> SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		logger.Warnw("config_file_read_failed", "error", err, "fallback", "env_or_defaults")
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}
	return Decode(v)
}

// WeakJWTSecret 密钥过短或仍为示例值
func (c JWTConfig) WeakJWTSecret() bool {
	if len(c.SecretKey) < 32 {
		return true
	}
	lowered := strings.ToLower(c.SecretKey)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Decode 将 viper 实例解析为配置结构并补齐非法值
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Lifecycle.UnavailableReentryStatus = strings.ToLower(strings.TrimSpace(cfg.Lifecycle.UnavailableReentryStatus))
	if cfg.Otp.MinValidityMinutes <= 0 {
		cfg.Otp.MinValidityMinutes = 5
	}
	if cfg.Otp.MaxValidityMinutes < cfg.Otp.MinValidityMinutes {
		cfg.Otp.MaxValidityMinutes = cfg.Otp.MinValidityMinutes
	}
	return &cfg, nil
}

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "freightlane.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/freightlane.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "freightlane")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "fl")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout_seconds", 3)
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.otp_verify_rate_limit.window_seconds", 300)
	v.SetDefault("security.otp_verify_rate_limit.max_requests", 10)
	v.SetDefault("security.otp_request_rate_limit.window_seconds", 60)
	v.SetDefault("security.otp_request_rate_limit.max_requests", 5)
	v.SetDefault("lifecycle.unavailable_reentry_status", "pending")
	v.SetDefault("lifecycle.shipper_cancel_after_award", true)
	v.SetDefault("otp.code_length", 6)
	v.SetDefault("otp.min_validity_minutes", 5)
	v.SetDefault("otp.max_validity_minutes", 60)
	v.SetDefault("otp.default_validity_minutes", 10)
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.hash_cost", 10)
	v.SetDefault("compliance.expiring_soon_days", 30)
	v.SetDefault("compliance.record_cache_ttl_seconds", 60)
	v.SetDefault("compliance.requirements", DefaultComplianceRequirements())
	v.SetDefault("events.websocket.enabled", true)
	v.SetDefault("events.websocket.write_timeout_seconds", 10)
	v.SetDefault("events.websocket.pong_wait_seconds", 60)
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("events.kafka.topic", "freightlane.events")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// DefaultComplianceRequirements 默认证件要求矩阵
func DefaultComplianceRequirements() map[string]map[string][]string {
	return map[string]map[string][]string{
		"solo": {
			"carrier": {"driving_license", "vehicle_registration", "insurance", "fitness_certificate"},
		},
		"enterprise": {
			"carrier": {"business_license", "insurance"},
			"truck":   {"vehicle_registration", "insurance", "fitness_certificate", "permit"},
			"driver":  {"driving_license"},
		},
	}
}
