package compress

import (
	"fmt"
)

// 預設壓縮參數
const (
	DefaultMaxDimension   = 900
	DefaultTargetMinBytes = 300 * 1024
	DefaultTargetMaxBytes = 500 * 1024
	DefaultStartQuality   = 60
	DefaultQualityStep    = 5
	DefaultMinQuality     = 30
	DefaultMaxQuality     = 85

	// DefaultMaxPixels 解碼前允許的最大像素數（寬 x 高）
	DefaultMaxPixels = 0x3FFF * 0x3FFF
)

// Options 壓縮設定，零值欄位使用預設值
type Options struct {
	MaxDimension   int `json:"max_dimension" mapstructure:"max_dimension"`
	TargetMinBytes int `json:"target_min_bytes" mapstructure:"target_min_bytes"`
	TargetMaxBytes int `json:"target_max_bytes" mapstructure:"target_max_bytes"`
	StartQuality   int `json:"start_quality" mapstructure:"start_quality"`
	QualityStep    int `json:"quality_step" mapstructure:"quality_step"`
	MinQuality     int `json:"min_quality" mapstructure:"min_quality"`
	MaxQuality     int `json:"max_quality" mapstructure:"max_quality"`
	MaxPixels      int `json:"max_pixels" mapstructure:"max_pixels"`
}

// DefaultOptions 返回預設壓縮設定
func DefaultOptions() Options {
	return Options{
		MaxDimension:   DefaultMaxDimension,
		TargetMinBytes: DefaultTargetMinBytes,
		TargetMaxBytes: DefaultTargetMaxBytes,
		StartQuality:   DefaultStartQuality,
		QualityStep:    DefaultQualityStep,
		MinQuality:     DefaultMinQuality,
		MaxQuality:     DefaultMaxQuality,
		MaxPixels:      DefaultMaxPixels,
	}
}

// WithDefaults 以預設值補齊未設定的欄位
func (o Options) WithDefaults() Options {
	return o.Merge(DefaultOptions())
}

// Merge 以 base 補齊未設定（<= 0）的欄位
func (o Options) Merge(base Options) Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = base.MaxDimension
	}
	if o.TargetMinBytes <= 0 {
		o.TargetMinBytes = base.TargetMinBytes
	}
	if o.TargetMaxBytes <= 0 {
		o.TargetMaxBytes = base.TargetMaxBytes
	}
	if o.StartQuality <= 0 {
		o.StartQuality = base.StartQuality
	}
	if o.QualityStep <= 0 {
		o.QualityStep = base.QualityStep
	}
	if o.MinQuality <= 0 {
		o.MinQuality = base.MinQuality
	}
	if o.MaxQuality <= 0 {
		o.MaxQuality = base.MaxQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = base.MaxPixels
	}
	return o
}

// Validate 檢查設定是否一致
func (o Options) Validate() error {
	if o.MaxDimension <= 0 {
		return fmt.Errorf("max dimension must be positive, got %d", o.MaxDimension)
	}
	if o.MaxPixels <= 0 {
		return fmt.Errorf("max pixels must be positive, got %d", o.MaxPixels)
	}
	if o.TargetMinBytes > o.TargetMaxBytes {
		return fmt.Errorf("target min bytes %d exceeds target max bytes %d", o.TargetMinBytes, o.TargetMaxBytes)
	}
	if o.QualityStep <= 0 {
		return fmt.Errorf("quality step must be positive, got %d", o.QualityStep)
	}
	for name, q := range map[string]int{
		"start quality": o.StartQuality,
		"min quality":   o.MinQuality,
		"max quality":   o.MaxQuality,
	} {
		if q < 1 || q > 100 {
			return fmt.Errorf("%s must be within 1..100, got %d", name, q)
		}
	}
	if o.MinQuality > o.MaxQuality {
		return fmt.Errorf("min quality %d exceeds max quality %d", o.MinQuality, o.MaxQuality)
	}
	return nil
}

// Fingerprint 設定的穩定字串表示，用於快取鍵
func (o Options) Fingerprint() string {
	return fmt.Sprintf("d%d:p%d:b%d-%d:q%d/%d/%d-%d",
		o.MaxDimension, o.MaxPixels,
		o.TargetMinBytes, o.TargetMaxBytes,
		o.StartQuality, o.QualityStep, o.MinQuality, o.MaxQuality,
	)
}
