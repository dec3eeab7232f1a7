package compress

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FileResult 寫入磁碟的壓縮結果
type FileResult struct {
	Result
	Path string `json:"path"`
}

// CompressFile 讀取 srcPath，壓縮後寫入 destDir/<name>.<format>
//
// name 為空時沿用來源檔名。來源檔案不會被刪除，清理由呼叫端負責。
func CompressFile(ctx context.Context, c *Compressor, srcPath, destDir, name string, opts Options) (*FileResult, error) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, NewIOError("read source", srcPath, err)
	}

	if name == "" {
		name = BaseName(srcPath)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, NewIOError("create destination", destDir, err)
	}

	res, err := c.Compress(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	path, err := WriteFile(destDir, name, res)
	if err != nil {
		return nil, err
	}

	return &FileResult{Result: *res, Path: path}, nil
}

// WriteFile 以暫存檔加改名的方式寫入，失敗時不留下部分檔案
func WriteFile(destDir, name string, r *Result) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", NewIOError("create destination", destDir, err)
	}

	path := filepath.Join(destDir, name+"."+r.Format)

	tmp, err := os.CreateTemp(destDir, "."+name+"-*.tmp")
	if err != nil {
		return "", NewIOError("create temp file", destDir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(r.Buffer); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", NewIOError("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", NewIOError("close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", NewIOError("rename", path, err)
	}

	return path, nil
}

// BaseName 去掉副檔名的檔名
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
