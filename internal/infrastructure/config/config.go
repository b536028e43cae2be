package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Matching    MatchingConfig  `mapstructure:"matching"`
	FDC         FDCConfig       `mapstructure:"fdc"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig 資料庫設定；driver 為 memory 時使用記憶體資料並從 seed_file 匯入
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	SeedFile    string `mapstructure:"seed_file"`
}

// DSN 組出 postgres 連線字串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// AuthConfig 身分驗證設定
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MatchingConfig 食材配對預設值
type MatchingConfig struct {
	DefaultLimit      int `mapstructure:"default_limit"`
	DefaultMaxMissing int `mapstructure:"default_max_missing"`
}

// FDCConfig USDA FoodData Central 設定
type FDCConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在不算錯誤
	_ = godotenv.Load()

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"database.driver":    "DB_DRIVER",
		"database.host":      "DB_HOST",
		"database.port":      "DB_PORT",
		"database.user":      "DB_USER",
		"database.password":  "DB_PASSWORD",
		"database.name":      "DB_NAME",
		"database.sslmode":   "DB_SSLMODE",
		"database.seed_file": "DB_SEED_FILE",
		"auth.jwt_secret":    "JWT_SECRET",
		"cache.enabled":      "CACHE_ENABLED",
		"cache.backend":      "CACHE_BACKEND",
		"cache.redis_addr":   "REDIS_ADDR",
		"rate_limit.enabled": "RATE_LIMIT_ENABLED",
		"rate_limit.window":  "RATE_LIMIT_WINDOW",
		"fdc.api_key":        "FDC_API_KEY",
		"fdc.enabled":        "FDC_ENABLED",
		"dedup_window":       "DEDUP_WINDOW",
		"log_level":          "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-matcher")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 資料庫設定
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "recipes")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed_file", "")

	// 身分驗證設定
	v.SetDefault("auth.issuer", "recipe-matcher")
	v.SetDefault("auth.token_ttl", "24h")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "1m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 配對設定
	v.SetDefault("matching.default_limit", 20)
	v.SetDefault("matching.default_max_missing", 2)

	// FoodData Central 設定
	v.SetDefault("fdc.enabled", false)
	v.SetDefault("fdc.base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("fdc.timeout", "15s")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Database.Driver {
	case "postgres":
	case "memory":
		if config.Database.SeedFile == "" {
			return fmt.Errorf("database seed_file is required for the memory driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unsupported cache backend %q", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	if config.Matching.DefaultLimit <= 0 {
		return fmt.Errorf("invalid matching default limit")
	}
	if config.Matching.DefaultMaxMissing < 0 {
		return fmt.Errorf("invalid matching default max missing")
	}

	if config.FDC.Enabled && config.FDC.APIKey == "" {
		return fmt.Errorf("fdc api_key is required when fdc is enabled")
	}

	return nil
}
