package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Upload      UploadConfig    `mapstructure:"upload"`
	Compress    CompressConfig  `mapstructure:"compress"`
	CDN         CDNConfig       `mapstructure:"cdn"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	CORS        CORSConfig      `mapstructure:"cors"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
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
}

// UploadConfig 上傳設定
type UploadConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes 上傳大小上限（位元組）
func (u UploadConfig) MaxUploadBytes() int64 {
	return u.MaxUploadMB * 1024 * 1024
}

// CompressConfig 壓縮參數
type CompressConfig struct {
	MaxDimension int    `mapstructure:"max_dimension"`
	TargetMinKB  int    `mapstructure:"target_min_kb"`
	TargetMaxKB  int    `mapstructure:"target_max_kb"`
	StartQuality int    `mapstructure:"start_quality"`
	QualityStep  int    `mapstructure:"quality_step"`
	MinQuality   int    `mapstructure:"min_quality"`
	MaxQuality   int    `mapstructure:"max_quality"`
	MaxPixels    int    `mapstructure:"max_pixels"`
	Preset       string `mapstructure:"preset"`
}

// CDNConfig 遠端圖床（Cloudinary 相容）設定
type CDNConfig struct {
	CloudName string        `mapstructure:"cloud_name"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Configured 是否已設定完整憑證
func (c CDNConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 壓縮隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// CORSConfig 跨域設定
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，不存在時略過
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定舊版環境變量
	bindLegacyEnv()

	// 設定設定檔名稱和路徑
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "upload_dir:", viper.GetString("upload.dir"), "cdn_api_key:", maskAPIKey(viper.GetString("cdn.api_key")))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// CORS_ORIGIN 以逗號分隔
	if raw := viper.GetString("cors.origin"); raw != "" {
		config.CORS.AllowOrigins = splitList(raw)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindLegacyEnv 綁定沿用的環境變數名稱
func bindLegacyEnv() {
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("app.env", "NODE_ENV", "APP_ENV")
	viper.BindEnv("upload.dir", "UPLOAD_DIR")
	viper.BindEnv("upload.max_upload_mb", "MAX_UPLOAD_MB")
	viper.BindEnv("cors.origin", "CORS_ORIGIN")
	viper.BindEnv("cdn.cloud_name", "CLOUDINARY_CLOUD_NAME")
	viper.BindEnv("cdn.api_key", "CLOUDINARY_API_KEY")
	viper.BindEnv("cdn.api_secret", "CLOUDINARY_API_SECRET")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")
	viper.BindEnv("log_dir", "LOG_DIR")
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "hotel-media-api")

	// 伺服器設定
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "45s")

	// 上傳設定
	viper.SetDefault("upload.dir", "uploads")
	viper.SetDefault("upload.max_upload_mb", 5)

	// 壓縮設定
	viper.SetDefault("compress.max_dimension", 900)
	viper.SetDefault("compress.target_min_kb", 300)
	viper.SetDefault("compress.target_max_kb", 500)
	viper.SetDefault("compress.start_quality", 60)
	viper.SetDefault("compress.quality_step", 5)
	viper.SetDefault("compress.min_quality", 30)
	viper.SetDefault("compress.max_quality", 85)
	viper.SetDefault("compress.max_pixels", 0x3FFF*0x3FFF)
	viper.SetDefault("compress.preset", "default")

	// 圖床設定
	viper.SetDefault("cdn.base_url", "https://api.cloudinary.com/v1_1")
	viper.SetDefault("cdn.timeout", "60s")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("cache.key_prefix", "hotel-media")
	viper.SetDefault("cache.max_size", 200)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	viper.SetDefault("queue.workers", 2)
	viper.SetDefault("queue.max_size", 50)

	// 限流設定，對應舊版每 15 分鐘 300 次
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 300)
	viper.SetDefault("rate_limit.window", "15m")

	viper.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})

	viper.SetDefault("dedup_window", "1s")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證上傳設定
	if config.Upload.Dir == "" {
		return fmt.Errorf("upload dir is required")
	}
	if config.Upload.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size")
	}

	// 驗證壓縮設定
	c := config.Compress
	if c.MaxDimension <= 0 {
		return fmt.Errorf("invalid compress max dimension")
	}
	if c.TargetMinKB > c.TargetMaxKB {
		return fmt.Errorf("compress target min exceeds target max")
	}
	if c.MinQuality > c.MaxQuality {
		return fmt.Errorf("compress min quality exceeds max quality")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "", "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
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
