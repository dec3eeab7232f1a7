package common

// ImageMeta 圖片上傳後附加到紀錄上的中繼資料
// 壓縮成功時填寫 OriginalSize/CompressedSize/Quality/Format，
// 回退上傳原圖時只填寫 Size 與原始 MIME
type ImageMeta struct {
	OriginalSize   int64  `json:"originalSize,omitempty"`
	CompressedSize int64  `json:"compressedSize,omitempty"`
	Quality        int    `json:"quality,omitempty"`
	Format         string `json:"format,omitempty"`
	Size           int64  `json:"size,omitempty"`
	MIME           string `json:"mime"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// Compressed 是否為壓縮後上傳
func (m ImageMeta) Compressed() bool {
	return m.Format != ""
}

// Asset 已上傳到 CDN 的圖片
type Asset struct {
	URL      string    `json:"url"`
	PublicID string    `json:"publicId"`
	Folder   string    `json:"folder"`
	Meta     ImageMeta `json:"meta"`
}

// CompressedFile 壓縮到本地目錄的圖片
type CompressedFile struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Size    int    `json:"size"`
	Quality int    `json:"quality"`
	Format  string `json:"format"`
}
