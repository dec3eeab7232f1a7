package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrCacheMiss 快取未命中
var ErrCacheMiss = errors.New("cache miss")

// Store 壓縮結果快取
type Store interface {
	Get(ctx context.Context, key string) (*compress.Result, error)
	Set(ctx context.Context, key string, result *compress.Result) error
	Stats() map[string]interface{}
	Close() error
}

// Key 生成快取鍵：來源內容雜湊 + 設定指紋 + 輸出格式
func Key(src []byte, opts compress.Options, format string) string {
	hash := sha256.Sum256(src)
	return fmt.Sprintf("compress:%s:%s:%s", format, opts.Fingerprint(), hex.EncodeToString(hash[:]))
}

// NewStore 依設定建立快取，停用時返回 nil
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		s, err := NewRedisStore(&cfg.Cache)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "", "memory":
		return NewManager(&cfg.Cache), nil
	default:
		common.LogError("Unknown cache backend", zap.String("backend", cfg.Cache.Backend))
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}
