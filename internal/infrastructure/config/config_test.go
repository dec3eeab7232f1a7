package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxUploadBytes())
	assert.Equal(t, 900, cfg.Compress.MaxDimension)
	assert.Equal(t, 300, cfg.Compress.TargetMinKB)
	assert.Equal(t, 500, cfg.Compress.TargetMaxKB)
	assert.Equal(t, 60, cfg.Compress.StartQuality)
	assert.Equal(t, 5, cfg.Compress.QualityStep)
	assert.Equal(t, 30, cfg.Compress.MinQuality)
	assert.Equal(t, 85, cfg.Compress.MaxQuality)
	assert.Equal(t, 0x3FFF*0x3FFF, cfg.Compress.MaxPixels)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowOrigins)
	assert.False(t, cfg.CDN.Configured())
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("PORT", "8088")
	t.Setenv("UPLOAD_DIR", "/tmp/hotel-uploads")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("CORS_ORIGIN", "https://hotel.example.com, https://admin.example.com")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "123456789012")
	t.Setenv("CLOUDINARY_API_SECRET", "s3cr3t")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "/tmp/hotel-uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(8*1024*1024), cfg.Upload.MaxUploadBytes())
	assert.Equal(t, []string{"https://hotel.example.com", "https://admin.example.com"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.CDN.Configured())
	assert.Equal(t, "demo", cfg.CDN.CloudName)
}

func TestLoadConfig_PrefixedEnv(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("APP_COMPRESS_MAX_DIMENSION", "1200")
	t.Setenv("APP_QUEUE_WORKERS", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Compress.MaxDimension)
	assert.Equal(t, 4, cfg.Queue.Workers)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 5000},
		Upload: UploadConfig{Dir: "uploads", MaxUploadMB: 5},
		Compress: CompressConfig{
			MaxDimension: 900, TargetMinKB: 300, TargetMaxKB: 500,
			StartQuality: 60, QualityStep: 5, MinQuality: 30, MaxQuality: 85,
		},
		Cache:     CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, TTL: time.Hour, CleanupInterval: time.Minute},
		Queue:     QueueConfig{Workers: 1, MaxSize: 1},
		RateLimit: RateLimitConfig{Enabled: true, Requests: 300, Window: 15 * time.Minute},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"missing upload dir", func(c *Config) { c.Upload.Dir = "" }, "upload dir"},
		{"band inverted", func(c *Config) { c.Compress.TargetMinKB = 600 }, "target min"},
		{"quality inverted", func(c *Config) { c.Compress.MinQuality = 90 }, "min quality"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "redis address"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "disk" }, "unknown cache backend"},
		{"cache disabled skips checks", func(c *Config) { c.Cache = CacheConfig{} }, ""},
		{"no workers", func(c *Config) { c.Queue.Workers = 0 }, "queue workers"},
		{"rate limit zero window", func(c *Config) { c.RateLimit.Window = 0 }, "rate limit window"},
		{"rate limit zero requests", func(c *Config) { c.RateLimit.Requests = 0 }, "rate limit requests"},
		{"rate limit disabled skips checks", func(c *Config) { c.RateLimit = RateLimitConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "1234...9012", maskAPIKey("123456789012"))
}
