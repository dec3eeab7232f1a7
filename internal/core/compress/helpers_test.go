package compress

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const kib = 1024

// fakeEncoder 依品質返回固定大小的輸出
type fakeEncoder struct {
	mu       sync.Mutex
	sizes    map[int]int
	fallback int
	failAt   int
	calls    []int
	bounds   image.Rectangle
}

func (f *fakeEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, quality)
	f.bounds = img.Bounds()
	if f.failAt != 0 && f.failAt == quality {
		return nil, errors.New("codec exploded")
	}

	size, ok := f.sizes[quality]
	if !ok {
		size = f.fallback
	}
	return bytes.Repeat([]byte{byte(quality)}, size), nil
}

func (f *fakeEncoder) Format() string {
	return "webp"
}

func (f *fakeEncoder) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// pngSource 產生 w x h 的漸層 PNG
func pngSource(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
