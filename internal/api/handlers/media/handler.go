package media

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hotel-media-api/internal/core/image"
	"hotel-media-api/internal/core/upload"
	"hotel-media-api/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上傳表單欄位
const (
	fieldImage  = "image"
	fieldFolder = "folder"
)

// Handler 圖片壓縮與圖床資源處理器
type Handler struct {
	images  *image.Service
	uploads *upload.Service
}

// NewHandler 創建圖片處理器
func NewHandler(images *image.Service, uploads *upload.Service) *Handler {
	return &Handler{
		images:  images,
		uploads: uploads,
	}
}

// Compress 壓縮上傳圖片到本地目錄
// POST /api/v1/compress  multipart: image
func (h *Handler) Compress(c *gin.Context) {
	saved, err := h.saveUpload(c)
	if err != nil {
		c.Error(err)
		return
	}

	out, err := h.uploads.CompressToDir(c.Request.Context(), saved.path, saved.name)
	if err != nil {
		c.Error(err)
		return
	}
	c.Set(common.CtxKeyCompression, common.ImageMeta{
		OriginalSize:   saved.size,
		CompressedSize: int64(out.Size),
		Quality:        out.Quality,
		Format:         out.Format,
	})

	c.JSON(http.StatusOK, out)
}

// CreateAsset 壓縮並上傳到圖床
// POST /api/v1/assets  multipart: image, folder
func (h *Handler) CreateAsset(c *gin.Context) {
	up, err := h.readAssetUpload(c)
	if err != nil {
		c.Error(err)
		return
	}

	asset, err := h.uploads.Ingest(c.Request.Context(), up)
	if err != nil {
		c.Error(err)
		return
	}
	c.Set(common.CtxKeyCompression, asset.Meta)

	c.JSON(http.StatusCreated, asset)
}

// ReplaceAsset 以新圖取代既有的圖床資源
// PUT /api/v1/assets/*public_id  multipart: image, folder
func (h *Handler) ReplaceAsset(c *gin.Context) {
	publicID := publicIDParam(c)
	if publicID == "" {
		c.Error(common.ErrInvalidRequest)
		return
	}

	up, err := h.readAssetUpload(c)
	if err != nil {
		c.Error(err)
		return
	}

	asset, err := h.uploads.Replace(c.Request.Context(), publicID, up)
	if err != nil {
		c.Error(err)
		return
	}
	c.Set(common.CtxKeyCompression, asset.Meta)

	c.JSON(http.StatusOK, asset)
}

// DeleteAsset 刪除圖床資源
// DELETE /api/v1/assets/*public_id
func (h *Handler) DeleteAsset(c *gin.Context) {
	if err := h.uploads.Remove(c.Request.Context(), publicIDParam(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) readAssetUpload(c *gin.Context) (upload.Upload, error) {
	folder := c.PostForm(fieldFolder)
	if !upload.ValidFolder(folder) {
		return upload.Upload{}, common.ErrInvalidFolder
	}

	saved, err := h.saveUpload(c)
	if err != nil {
		return upload.Upload{}, err
	}

	return upload.Upload{
		Path:   saved.path,
		Size:   saved.size,
		MIME:   saved.mime,
		Folder: folder,
	}, nil
}

// savedFile 已存到暫存目錄的上傳檔
type savedFile struct {
	path string
	name string
	size int64
	mime string
}

// saveUpload 驗證上傳檔並以 uuid 檔名存到暫存目錄
func (h *Handler) saveUpload(c *gin.Context) (*savedFile, error) {
	fh, err := c.FormFile(fieldImage)
	if err != nil {
		return nil, formFileError(err)
	}

	mime, err := h.images.ValidateFile(fh)
	if err != nil {
		return nil, err
	}

	dir := h.uploads.TempDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}

	name := common.GenerateUUID()
	path := filepath.Join(dir, name+h.images.Extension(fh.Filename, mime))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}

	common.LogDebug("上傳檔案已暫存",
		zap.String("request_id", requestid.Get(c)),
		zap.String("mime", mime),
		zap.Int64("size", fh.Size),
	)

	return &savedFile{path: path, name: name, size: fh.Size, mime: mime}, nil
}

func formFileError(err error) error {
	if errors.Is(err, http.ErrMissingFile) {
		return common.ErrNoImageFile
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.ErrInvalidImageSize.WithErr(err)
	}
	return common.ErrInvalidRequest.WithErr(err)
}

func publicIDParam(c *gin.Context) string {
	return strings.Trim(c.Param("public_id"), "/")
}
