package compress

import (
	"errors"
	"fmt"
)

// EncodeError 編解碼失敗（來源無法解碼、縮放或編碼失敗）
type EncodeError struct {
	Op      string
	Quality int
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Quality > 0 {
		return fmt.Sprintf("%s at quality %d: %v", e.Op, e.Quality, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// IOError 讀取來源或寫入目的地失敗
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError 包裝 I/O 錯誤
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsEncodeError 檢查是否為編解碼錯誤
func IsEncodeError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee)
}

// IsIOError 檢查是否為 I/O 錯誤
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
