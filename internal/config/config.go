package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	Draft     DraftConfig     `mapstructure:"draft"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DraftConfig 课程草稿编辑的调度参数
type DraftConfig struct {
	SnapshotMaxAgeDays   int           `mapstructure:"snapshot_max_age_days"` // 草稿快照过期天数，默认180（约6个月）
	LocalDebounce        time.Duration `mapstructure:"local_debounce_ms"`     // 快照写入防抖窗口
	RemoteDebounce       time.Duration `mapstructure:"remote_debounce_ms"`    // 远端增量保存防抖窗口
	SessionIdleTimeout   time.Duration `mapstructure:"session_idle_minutes"`  // 编辑会话空闲回收时间
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_minutes"` // 会话回收扫描周期
}

type MessagingConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval_seconds"` // 消息轮询间隔
	PollTimeout  time.Duration `mapstructure:"poll_timeout_seconds"`  // 长轮询最长等待
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("TRAINCAPE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 配置文件中以毫秒/分钟/秒为单位的数值换算成 Duration
	cfg.Draft.LocalDebounce = cfg.Draft.LocalDebounce * time.Millisecond
	cfg.Draft.RemoteDebounce = cfg.Draft.RemoteDebounce * time.Millisecond
	cfg.Draft.SessionIdleTimeout = cfg.Draft.SessionIdleTimeout * time.Minute
	cfg.Draft.SessionSweepInterval = cfg.Draft.SessionSweepInterval * time.Minute
	cfg.Messaging.PollInterval = cfg.Messaging.PollInterval * time.Second
	cfg.Messaging.PollTimeout = cfg.Messaging.PollTimeout * time.Second

	applyDraftDefaults(&cfg.Draft)
	applyMessagingDefaults(&cfg.Messaging)

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func applyDraftDefaults(d *DraftConfig) {
	if d.SnapshotMaxAgeDays <= 0 {
		d.SnapshotMaxAgeDays = 180
	}
	if d.LocalDebounce <= 0 {
		d.LocalDebounce = 2 * time.Second
	}
	if d.RemoteDebounce <= 0 {
		d.RemoteDebounce = 10 * time.Second
	}
	if d.SessionIdleTimeout <= 0 {
		d.SessionIdleTimeout = 30 * time.Minute
	}
	if d.SessionSweepInterval <= 0 {
		d.SessionSweepInterval = 5 * time.Minute
	}
}

func applyMessagingDefaults(m *MessagingConfig) {
	if m.PollInterval <= 0 {
		m.PollInterval = 3 * time.Second
	}
	if m.PollTimeout <= 0 {
		m.PollTimeout = 25 * time.Second
	}
}
