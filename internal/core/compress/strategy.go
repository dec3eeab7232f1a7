package compress

// Attempt 一次編碼嘗試
type Attempt struct {
	Quality int
	Size    int
	Buffer  []byte
}

// QualitySearch 單次壓縮的品質搜尋狀態
type QualitySearch interface {
	// NextQuality 根據目前品質與大小返回下一個品質，false 表示停止
	NextQuality(quality, size int) (int, bool)
}

// Strategy 品質搜尋策略
type Strategy interface {
	NewSearch(opts Options, first Attempt) QualitySearch
}

// LinearStep 以固定步長線性調整品質
//
// 首次編碼超過上限時只往下調，直到不超過上限或品質到達 MinQuality；
// 低於下限且品質未達 MaxQuality 時只往上調，直到達到下限或品質到達 MaxQuality。
// 方向在第一次嘗試後決定，之後不會反轉。
type LinearStep struct{}

// NewSearch 實作 Strategy
func (LinearStep) NewSearch(opts Options, first Attempt) QualitySearch {
	s := &linearSearch{opts: opts}
	switch {
	case first.Size > opts.TargetMaxBytes:
		s.direction = -1
	case first.Size < opts.TargetMinBytes && first.Quality < opts.MaxQuality:
		s.direction = 1
	}
	return s
}

type linearSearch struct {
	opts      Options
	direction int
}

func (s *linearSearch) NextQuality(quality, size int) (int, bool) {
	var next int
	switch s.direction {
	case -1:
		if size <= s.opts.TargetMaxBytes || quality <= s.opts.MinQuality {
			return 0, false
		}
		next = quality - s.opts.QualityStep
	case 1:
		if size >= s.opts.TargetMinBytes || quality >= s.opts.MaxQuality {
			return 0, false
		}
		next = quality + s.opts.QualityStep
	default:
		return 0, false
	}

	next = clampQuality(next)
	if next == quality {
		return 0, false
	}
	return next, true
}

// clampQuality 編碼器只接受 1..100
func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
