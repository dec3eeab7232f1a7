package image

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"hotel-media-api/internal/pkg/common"

	"github.com/gabriel-vasile/mimetype"
)

// 允許上傳的圖片類型
var supportedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Service 上傳圖片驗證服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片驗證服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// MaxSizeBytes 上傳大小上限
func (s *Service) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// ValidateFile 驗證上傳的檔案，返回偵測到的 MIME 類型
func (s *Service) ValidateFile(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", common.ErrNoImageFile
	}

	// 檢查文件大小
	if fh.Size > s.maxSizeBytes {
		return "", common.ErrInvalidImageSize.WithErr(
			fmt.Errorf("image size %d exceeds maximum limit of %d bytes", fh.Size, s.maxSizeBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return s.Validate(f)
}

// Validate 以內容偵測圖片類型，不信任客戶端提供的 Content-Type
func (s *Service) Validate(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect image type: %w", err)
	}

	mime := mtype.String()
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}

	// 檢查圖片格式
	if !isSupportedMIME(mime) {
		return "", common.ErrInvalidImageType.WithErr(fmt.Errorf("unsupported image type: %s", mime))
	}

	return mime, nil
}

// Extension 返回暫存檔使用的小寫副檔名，未知時依 MIME 推斷
func (s *Service) Extension(filename, mime string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		return ext
	}
	return supportedMIMETypes[mime]
}

// isSupportedMIME 檢查圖片類型是否支援
func isSupportedMIME(mime string) bool {
	_, ok := supportedMIMETypes[mime]
	return ok
}
