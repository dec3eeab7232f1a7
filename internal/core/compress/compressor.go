package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"hotel-media-api/internal/pkg/common"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp" // 支援 WebP 來源
)

// Encoder 有損編碼器
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
	Format() string
}

// Result 壓縮結果
type Result struct {
	Buffer   []byte `json:"buffer"`
	Size     int    `json:"size"`
	Quality  int    `json:"quality"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Attempts int    `json:"attempts"`
}

// Compressor 在目標大小區間內搜尋編碼品質
//
// Compressor 不持有可變狀態，可同時被多個 goroutine 使用。
type Compressor struct {
	encoder  Encoder
	strategy Strategy
	defaults Options
}

// NewCompressor 創建壓縮器，defaults 的零值欄位使用預設值
func NewCompressor(encoder Encoder, defaults Options) *Compressor {
	return &Compressor{
		encoder:  encoder,
		strategy: LinearStep{},
		defaults: defaults.WithDefaults(),
	}
}

// WithStrategy 返回使用指定搜尋策略的壓縮器副本
func (c *Compressor) WithStrategy(s Strategy) *Compressor {
	cp := *c
	cp.strategy = s
	return &cp
}

// Options 返回壓縮器的預設設定
func (c *Compressor) Options() Options {
	return c.defaults
}

// Format 輸出格式
func (c *Compressor) Format() string {
	return c.encoder.Format()
}

// Compress 縮放並重新編碼 src，opts 的零值欄位使用壓縮器預設值
func (c *Compressor) Compress(ctx context.Context, src []byte, opts Options) (*Result, error) {
	opts = opts.Merge(c.defaults)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compress options: %w", err)
	}

	if len(src) == 0 {
		return nil, &EncodeError{Op: "decode", Err: errors.New("empty source")}
	}

	// 先讀標頭，避免超大尺寸的圖片在解碼時耗盡記憶體
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, &EncodeError{Op: "decode", Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(opts.MaxPixels) {
		return nil, &EncodeError{Op: "decode", Err: fmt.Errorf("image %dx%d exceeds pixel limit %d", cfg.Width, cfg.Height, opts.MaxPixels)}
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &EncodeError{Op: "decode", Err: err}
	}

	fitted := fitWithin(img, opts.MaxDimension)
	bounds := fitted.Bounds()

	encode := func(quality int) (Attempt, error) {
		buf, err := c.encoder.Encode(fitted, quality)
		if err != nil {
			return Attempt{}, &EncodeError{Op: "encode", Quality: quality, Err: err}
		}
		common.LogImageProcessing("debug", "encode attempt",
			zap.Int("quality", quality),
			zap.Int("size", len(buf)),
		)
		return Attempt{Quality: quality, Size: len(buf), Buffer: buf}, nil
	}

	current, err := encode(opts.StartQuality)
	if err != nil {
		return nil, err
	}
	attempts := 1

	search := c.strategy.NewSearch(opts, current)
	for {
		next, ok := search.NextQuality(current.Quality, current.Size)
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt, err := encode(next)
		if err != nil {
			return nil, err
		}
		attempts++

		// 往上調整時超過上限，保留上一次結果
		if attempt.Quality > current.Quality && attempt.Size > opts.TargetMaxBytes {
			break
		}
		current = attempt
	}

	return &Result{
		Buffer:   current.Buffer,
		Size:     current.Size,
		Quality:  current.Quality,
		Format:   c.encoder.Format(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Attempts: attempts,
	}, nil
}

// fitWithin 等比例縮小到長邊不超過 maxDim，不放大
func fitWithin(img image.Image, maxDim int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}
