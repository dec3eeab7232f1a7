package webp

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Format WebP 格式標記
const Format = "webp"

// Encoder libwebp 有損編碼器
type Encoder struct {
	preset encoder.EncodingPreset
}

// NewEncoder 創建使用預設 preset 的編碼器
func NewEncoder() *Encoder {
	return &Encoder{preset: encoder.PresetDefault}
}

// NewEncoderWithPreset 創建使用指定 preset 的編碼器
func NewEncoderWithPreset(preset encoder.EncodingPreset) *Encoder {
	return &Encoder{preset: preset}
}

// presets 設定檔可用的 preset 名稱
var presets = map[string]encoder.EncodingPreset{
	"":        encoder.PresetDefault,
	"default": encoder.PresetDefault,
	"picture": encoder.PresetPicture,
	"photo":   encoder.PresetPhoto,
	"drawing": encoder.PresetDrawing,
	"icon":    encoder.PresetIcon,
	"text":    encoder.PresetText,
}

// ParsePreset 依名稱取得 preset
func ParsePreset(name string) (encoder.EncodingPreset, error) {
	preset, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return encoder.PresetDefault, fmt.Errorf("unknown webp preset: %s", name)
	}
	return preset, nil
}

// Encode 以指定品質編碼
func (e *Encoder) Encode(img image.Image, quality int) ([]byte, error) {
	opts, err := encoder.NewLossyEncoderOptions(e.preset, float32(quality))
	if err != nil {
		return nil, fmt.Errorf("failed to create webp options: %w", err)
	}

	// libwebp 只接受 RGBA 類型的像素
	src, ok := img.(*image.NRGBA)
	if !ok {
		src = imaging.Clone(img)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, src, opts); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// Format 實作 compress.Encoder
func (e *Encoder) Format() string {
	return Format
}
