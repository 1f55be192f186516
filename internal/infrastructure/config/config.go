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
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Scraper     ScraperConfig     `mapstructure:"scraper"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	APINinjas   APINinjasConfig   `mapstructure:"api_ninjas"`
	USDA        USDAConfig        `mapstructure:"usda"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
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
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig PostgreSQL 設定，URL 為空時不啟用儲存
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend 為 memory 或 redis
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 匯入隊列設定，固定單一 worker
type QueueConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ScraperConfig 食譜頁面擷取設定
type ScraperConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    time.Duration `mapstructure:"rate_limit"`
	AllowedHosts []string      `mapstructure:"allowed_hosts"`
	Strict       bool          `mapstructure:"strict"`
}

// DiscoveryConfig 食譜網址探索設定
type DiscoveryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Limit   int    `mapstructure:"limit"`
}

// HuggingFaceConfig 菜系分類（zero-shot）設定
type HuggingFaceConfig struct {
	APIToken   string        `mapstructure:"api_token"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	RateLimit  time.Duration `mapstructure:"rate_limit"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// APINinjasConfig API Ninjas 營養分析設定
type APINinjasConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// USDAConfig FoodData Central 設定
type USDAConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 可有可無
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"huggingface.api_token":  "HUGGINGFACE_API_TOKEN",
		"huggingface.model":      "HUGGINGFACE_MODEL",
		"openrouter.api_key":     "OPENROUTER_API_KEY",
		"openrouter.model":       "OPENROUTER_MODEL",
		"openrouter.enabled":     "OPENROUTER_ENABLED",
		"api_ninjas.api_key":     "API_NINJA_KEY",
		"usda.api_key":           "USDA_API_KEY",
		"database.url":           "DATABASE_URL",
		"redis.addr":             "REDIS_ADDR",
		"redis.password":         "REDIS_PASSWORD",
		"cache.enabled":          "CACHE_ENABLED",
		"cache.backend":          "CACHE_BACKEND",
		"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
		"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
		"rate_limit.window":      "RATE_LIMIT_WINDOW",
		"scraper.strict":         "SCRAPER_STRICT",
		"scraper.allowed_hosts":  "SCRAPER_ALLOWED_HOSTS",
		"dedup_window":           "DEDUP_WINDOW",
		"log_level":              "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"huggingface_token:", maskAPIKey(v.GetString("huggingface.api_token")),
		"api_ninjas_key:", maskAPIKey(v.GetString("api_ninjas.api_key")),
		"openrouter_model:", v.GetString("openrouter.model"),
	)

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

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-ingestor")
	v.SetDefault("log_level", "info")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB
	v.SetDefault("server.shutdown_timeout", "5s")

	// 資料庫
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.migrate_on_start", true)

	// Redis
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 快取設定，LRU 容量 100
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 100)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 擷取設定
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; Recipe Scraper; +https://nourishly.app)")
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.rate_limit", "2s")
	v.SetDefault("scraper.allowed_hosts", []string{"budgetbytes.com"})
	v.SetDefault("scraper.strict", false)

	// 探索設定
	v.SetDefault("discovery.base_url", "https://www.budgetbytes.com")
	v.SetDefault("discovery.limit", 10)

	// Hugging Face
	v.SetDefault("huggingface.api_token", "")
	v.SetDefault("huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("huggingface.model", "facebook/bart-large-mnli")
	v.SetDefault("huggingface.timeout", "30s")
	v.SetDefault("huggingface.max_retries", 3)
	v.SetDefault("huggingface.retry_delay", "2s")
	v.SetDefault("huggingface.rate_limit", "1s")

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 300)
	v.SetDefault("openrouter.timeout", "60s")

	// API Ninjas
	v.SetDefault("api_ninjas.api_key", "")
	v.SetDefault("api_ninjas.base_url", "https://api.api-ninjas.com")
	v.SetDefault("api_ninjas.timeout", "30s")

	// USDA
	v.SetDefault("usda.enabled", false)
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov")
	v.SetDefault("usda.timeout", "30s")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		switch config.Cache.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
	}

	// 驗證隊列設定
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.HuggingFace.MaxRetries < 0 {
		return fmt.Errorf("invalid huggingface max retries")
	}
	if config.Scraper.Timeout <= 0 {
		return fmt.Errorf("invalid scraper timeout")
	}
	if len(config.Scraper.AllowedHosts) == 0 {
		return fmt.Errorf("at least one allowed scraper host is required")
	}
	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter is enabled but OPENROUTER_API_KEY is empty")
	}

	return nil
}
