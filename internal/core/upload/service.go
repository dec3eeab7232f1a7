package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"hotel-media-api/internal/core/asset"
	"hotel-media-api/internal/core/cache"
	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"go.uber.org/zap"
)

// CompressedDir 本地壓縮輸出的子目錄
const CompressedDir = "compressed"

// PublicPrefix 上傳目錄對外的 URL 前綴
const PublicPrefix = "/uploads"

// 允許的圖床資料夾
var allowedFolders = map[string]bool{
	"gallery": true,
	"home":    true,
}

// Compressor 壓縮器，*compress.Compressor 與 *queue.Manager 皆可
type Compressor interface {
	Compress(ctx context.Context, src []byte, opts compress.Options) (*compress.Result, error)
}

// AssetStore 遠端圖床
type AssetStore interface {
	Upload(ctx context.Context, filePath, folder string) (*asset.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// Upload 已存到暫存目錄的上傳檔案
type Upload struct {
	Path   string
	Size   int64
	MIME   string
	Folder string
}

// Service 上傳流程：壓縮、寫檔、上傳圖床與清理暫存檔
type Service struct {
	dir        string
	format     string
	opts       compress.Options
	compressor Compressor
	cache      cache.Store
	assets     AssetStore
}

// CompressOptions 由設定產生壓縮參數
func CompressOptions(cfg config.CompressConfig) compress.Options {
	return compress.Options{
		MaxDimension:   cfg.MaxDimension,
		TargetMinBytes: cfg.TargetMinKB * 1024,
		TargetMaxBytes: cfg.TargetMaxKB * 1024,
		StartQuality:   cfg.StartQuality,
		QualityStep:    cfg.QualityStep,
		MinQuality:     cfg.MinQuality,
		MaxQuality:     cfg.MaxQuality,
		MaxPixels:      cfg.MaxPixels,
	}.WithDefaults()
}

// NewService 創建上傳服務，store 可為 nil（不使用快取）
func NewService(cfg *config.Config, compressor Compressor, format string, store cache.Store, assets AssetStore) *Service {
	return &Service{
		dir:        cfg.Upload.Dir,
		format:     format,
		opts:       CompressOptions(cfg.Compress),
		compressor: compressor,
		cache:      store,
		assets:     assets,
	}
}

// Dir 上傳根目錄
func (s *Service) Dir() string {
	return s.dir
}

// TempDir 原始上傳的暫存目錄
func (s *Service) TempDir() string {
	return filepath.Join(s.dir, "tmp")
}

// ValidFolder 檢查圖床資料夾是否允許
func ValidFolder(folder string) bool {
	return allowedFolders[folder]
}

// CompressToDir 壓縮到 <dir>/compressed/<name>.<format>，成功或失敗都會刪除原始上傳
func (s *Service) CompressToDir(ctx context.Context, srcPath, name string) (*common.CompressedFile, error) {
	defer s.removeScratch(srcPath)

	if name == "" {
		name = compress.BaseName(srcPath)
	}

	res, err := s.compressPath(ctx, srcPath)
	if err != nil {
		return nil, common.ErrCompressionFailed.WithErr(err)
	}

	path, err := compress.WriteFile(filepath.Join(s.dir, CompressedDir), name, res)
	if err != nil {
		return nil, common.ErrCompressionFailed.WithErr(err)
	}

	return &common.CompressedFile{
		Success: true,
		Path:    PublicPrefix + "/" + CompressedDir + "/" + filepath.Base(path),
		Size:    res.Size,
		Quality: res.Quality,
		Format:  res.Format,
	}, nil
}

// Ingest 壓縮並上傳到圖床，壓縮失敗時改傳原圖
func (s *Service) Ingest(ctx context.Context, up Upload) (*common.Asset, error) {
	defer s.removeScratch(up.Path)

	if !ValidFolder(up.Folder) {
		return nil, common.ErrInvalidFolder
	}

	compressedPath, res, err := s.compressToScratch(ctx, up.Path)
	if compressedPath != "" {
		defer s.removeScratch(compressedPath)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		// 壓縮失敗，改傳原圖
		common.LogWarn("圖片壓縮失敗，改為上傳原圖",
			zap.String("folder", up.Folder),
			zap.Error(err),
		)
		uploaded, err := s.assets.Upload(ctx, up.Path, up.Folder)
		if err != nil {
			return nil, common.ErrUploadFailed.WithErr(err)
		}
		return &common.Asset{
			URL:      uploaded.SecureURL,
			PublicID: uploaded.PublicID,
			Folder:   up.Folder,
			Meta: common.ImageMeta{
				Size:   up.Size,
				MIME:   up.MIME,
				Width:  uploaded.Width,
				Height: uploaded.Height,
			},
		}, nil
	}

	uploaded, err := s.assets.Upload(ctx, compressedPath, up.Folder)
	if err != nil {
		return nil, common.ErrUploadFailed.WithErr(err)
	}

	return &common.Asset{
		URL:      uploaded.SecureURL,
		PublicID: uploaded.PublicID,
		Folder:   up.Folder,
		Meta: common.ImageMeta{
			OriginalSize:   up.Size,
			CompressedSize: int64(res.Size),
			Quality:        res.Quality,
			Format:         res.Format,
			MIME:           "image/" + res.Format,
			Width:          res.Width,
			Height:         res.Height,
		},
	}, nil
}

// Replace 刪除舊的圖床資源後上傳新圖，刪除失敗只記錄警告
func (s *Service) Replace(ctx context.Context, oldPublicID string, up Upload) (*common.Asset, error) {
	if !ValidFolder(up.Folder) {
		s.removeScratch(up.Path)
		return nil, common.ErrInvalidFolder
	}

	if err := s.assets.Delete(ctx, oldPublicID); err != nil {
		common.LogWarn("刪除舊圖失敗",
			zap.String("public_id", oldPublicID),
			zap.Error(err),
		)
	}

	return s.Ingest(ctx, up)
}

// Remove 刪除圖床資源
func (s *Service) Remove(ctx context.Context, publicID string) error {
	if publicID == "" {
		return common.ErrInvalidRequest
	}
	if err := s.assets.Delete(ctx, publicID); err != nil {
		return common.ErrUploadFailed.WithErr(err)
	}
	return nil
}

// compressToScratch 壓縮並寫到暫存目錄，返回暫存檔路徑
func (s *Service) compressToScratch(ctx context.Context, srcPath string) (string, *compress.Result, error) {
	res, err := s.compressPath(ctx, srcPath)
	if err != nil {
		return "", nil, err
	}

	path, err := compress.WriteFile(s.TempDir(), common.GenerateUUID(), res)
	if err != nil {
		return "", nil, err
	}
	return path, res, nil
}

// compressPath 讀取檔案並壓縮，先查快取
func (s *Service) compressPath(ctx context.Context, srcPath string) (*compress.Result, error) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, compress.NewIOError("read source", srcPath, err)
	}

	start := time.Now()
	key := cache.Key(src, s.opts, s.format)
	if s.cache != nil {
		if res, err := s.cache.Get(ctx, key); err == nil {
			return res, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
	}

	res, err := s.compressor.Compress(ctx, src, s.opts)
	if err != nil {
		return nil, err
	}

	common.LogCompression(filepath.Base(srcPath), len(src), res.Size, res.Quality, res.Attempts, time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res); err != nil {
			common.LogWarn("寫入快取失敗", zap.Error(err))
		}
	}
	return res, nil
}

func (s *Service) removeScratch(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		common.LogWarn("刪除暫存檔失敗",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
