package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Sources     SourcesConfig   `mapstructure:"sources"`
	Recipes     RecipesConfig   `mapstructure:"recipes"`
	Filter      FilterConfig    `mapstructure:"filter"`
	Planner     PlannerConfig   `mapstructure:"planner"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// SourcesConfig 食譜資料來源
type SourcesConfig struct {
	Paths           []string      `mapstructure:"paths"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`          // 0 表示不限制
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // 0 表示不定期重新載入
}

// RecipesConfig 正規化設定
type RecipesConfig struct {
	RequireMealType bool `mapstructure:"require_meal_type"`
}

// FilterConfig 篩選設定
type FilterConfig struct {
	StartEmpty bool `mapstructure:"start_empty"`
}

// PlannerConfig 餐點計畫儲存設定
type PlannerConfig struct {
	Store string      `mapstructure:"store"` // memory | redis
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// 計畫儲存後端
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時略過）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("sources.paths", "APP_SOURCES_PATHS", "RECIPE_SOURCES")
	_ = v.BindEnv("sources.base_url", "APP_SOURCES_BASE_URL", "RECIPE_BASE_URL")
	_ = v.BindEnv("planner.store", "APP_PLANNER_STORE", "PLANNER_STORE")
	_ = v.BindEnv("planner.redis.addr", "APP_PLANNER_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("planner.redis.password", "APP_PLANNER_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("planner.redis.db", "APP_PLANNER_REDIS_DB", "REDIS_DB")
	_ = v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "APP_RATE_LIMIT_REQUESTS", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "APP_RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "APP_DEDUP_WINDOW", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
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
	config.Sources.Paths = cleanPaths(config.Sources.Paths)

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret 遮罩密碼，只顯示前後各 2 個字符
func MaskSecret(s string) string {
	if len(s) <= 6 {
		return "****"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-browser")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 64*1024)

	// 食譜來源
	v.SetDefault("sources.paths", []string{
		"assets/data/recipes-01.json",
		"assets/data/recipes-02.json",
		"assets/data/recipes.json",
	})
	v.SetDefault("sources.base_url", "")
	v.SetDefault("sources.timeout", "0s")
	v.SetDefault("sources.refresh_interval", "0s")

	v.SetDefault("recipes.require_meal_type", false)
	v.SetDefault("filter.start_empty", true)

	// 計畫儲存
	v.SetDefault("planner.store", StoreMemory)
	v.SetDefault("planner.redis.addr", "localhost:6379")
	v.SetDefault("planner.redis.db", 0)
	v.SetDefault("planner.redis.prefix", "recipe-browser:")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證來源設定
	if len(config.Sources.Paths) == 0 {
		return fmt.Errorf("at least one recipe source path is required")
	}
	if config.Sources.Timeout < 0 {
		return fmt.Errorf("invalid sources timeout")
	}
	if config.Sources.RefreshInterval < 0 {
		return fmt.Errorf("invalid sources refresh interval")
	}

	// 驗證計畫儲存設定
	switch config.Planner.Store {
	case StoreMemory:
	case StoreRedis:
		if config.Planner.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for redis planner store")
		}
	default:
		return fmt.Errorf("unknown planner store %q", config.Planner.Store)
	}

	// 驗證限流設定
	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	return nil
}
