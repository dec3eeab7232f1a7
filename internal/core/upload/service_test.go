package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotel-media-api/internal/core/asset"
	"hotel-media-api/internal/core/cache"
	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompressor struct {
	calls int
	err   error
}

func (f *fakeCompressor) Compress(ctx context.Context, src []byte, opts compress.Options) (*compress.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &compress.Result{
		Buffer:   []byte("webp:" + string(src)),
		Size:     len(src) + 5,
		Quality:  opts.StartQuality,
		Format:   "webp",
		Width:    900,
		Height:   675,
		Attempts: 1,
	}, nil
}

type uploadCall struct {
	path    string
	folder  string
	content string
}

type fakeAssets struct {
	uploads   []uploadCall
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeAssets) Upload(ctx context.Context, filePath, folder string) (*asset.UploadResult, error) {
	data, _ := os.ReadFile(filePath)
	f.uploads = append(f.uploads, uploadCall{path: filePath, folder: folder, content: string(data)})
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &asset.UploadResult{
		SecureURL: "https://cdn.example.com/" + folder + "/" + filepath.Base(filePath),
		PublicID:  folder + "/" + compress.BaseName(filePath),
		Width:     1200,
		Height:    800,
	}, nil
}

func (f *fakeAssets) Delete(ctx context.Context, publicID string) error {
	f.deletes = append(f.deletes, publicID)
	return f.deleteErr
}

func newTestService(t *testing.T, c Compressor, assets AssetStore, store cache.Store) *Service {
	t.Helper()
	cfg := &config.Config{Upload: config.UploadConfig{Dir: t.TempDir(), MaxUploadMB: 5}}
	return NewService(cfg, c, "webp", store, assets)
}

func writeUpload(t *testing.T, s *Service, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(s.TempDir(), 0o755))
	path := filepath.Join(s.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func scratchFiles(t *testing.T, s *Service) []string {
	t.Helper()
	entries, err := os.ReadDir(s.TempDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCompressOptions(t *testing.T) {
	opts := CompressOptions(config.CompressConfig{MaxDimension: 1200, TargetMinKB: 100, TargetMaxKB: 200})
	assert.Equal(t, 1200, opts.MaxDimension)
	assert.Equal(t, 100*1024, opts.TargetMinBytes)
	assert.Equal(t, 200*1024, opts.TargetMaxBytes)
	assert.Equal(t, compress.DefaultStartQuality, opts.StartQuality)
	assert.Equal(t, compress.DefaultMaxQuality, opts.MaxQuality)
	assert.Equal(t, compress.DefaultMaxPixels, opts.MaxPixels)

	opts = CompressOptions(config.CompressConfig{MaxPixels: 4096 * 4096})
	assert.Equal(t, 4096*4096, opts.MaxPixels)
}

func TestCompressToDir(t *testing.T) {
	s := newTestService(t, &fakeCompressor{}, &fakeAssets{}, nil)
	src := writeUpload(t, s, "lobby.jpg", "lobby")

	out, err := s.CompressToDir(context.Background(), src, "lobby-1")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "/uploads/compressed/lobby-1.webp", out.Path)
	assert.Equal(t, 10, out.Size)
	assert.Equal(t, 60, out.Quality)
	assert.Equal(t, "webp", out.Format)

	data, err := os.ReadFile(filepath.Join(s.Dir(), CompressedDir, "lobby-1.webp"))
	require.NoError(t, err)
	assert.Equal(t, "webp:lobby", string(data))

	assert.NoFileExists(t, src)
}

func TestCompressToDir_FailureRemovesOriginal(t *testing.T) {
	failure := &compress.EncodeError{Op: "decode", Err: errors.New("bad header")}
	s := newTestService(t, &fakeCompressor{err: failure}, &fakeAssets{}, nil)
	src := writeUpload(t, s, "broken.jpg", "garbage")

	_, err := s.CompressToDir(context.Background(), src, "")
	require.Error(t, err)
	assert.True(t, compress.IsEncodeError(err))

	var ce *common.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "COMPRESSION_FAILED", ce.Code)

	assert.NoFileExists(t, src)
	assert.NoFileExists(t, filepath.Join(s.Dir(), CompressedDir, "broken.webp"))
}

func TestIngest_Compressed(t *testing.T) {
	assets := &fakeAssets{}
	s := newTestService(t, &fakeCompressor{}, assets, nil)
	src := writeUpload(t, s, "pool.png", "pool")

	got, err := s.Ingest(context.Background(), Upload{Path: src, Size: 4, MIME: "image/png", Folder: "gallery"})
	require.NoError(t, err)

	require.Len(t, assets.uploads, 1)
	assert.Equal(t, "gallery", assets.uploads[0].folder)
	assert.Equal(t, "webp:pool", assets.uploads[0].content)
	assert.Equal(t, ".webp", filepath.Ext(assets.uploads[0].path))

	assert.Equal(t, "gallery", got.Folder)
	assert.True(t, got.Meta.Compressed())
	assert.Equal(t, int64(4), got.Meta.OriginalSize)
	assert.Equal(t, int64(9), got.Meta.CompressedSize)
	assert.Equal(t, 60, got.Meta.Quality)
	assert.Equal(t, "webp", got.Meta.Format)
	assert.Equal(t, "image/webp", got.Meta.MIME)
	assert.Equal(t, 900, got.Meta.Width)
	assert.Equal(t, 675, got.Meta.Height)

	assert.Empty(t, scratchFiles(t, s))
}

func TestIngest_FallbackToOriginal(t *testing.T) {
	assets := &fakeAssets{}
	failure := &compress.EncodeError{Op: "encode", Quality: 60, Err: errors.New("codec")}
	s := newTestService(t, &fakeCompressor{err: failure}, assets, nil)
	src := writeUpload(t, s, "room.jpg", "room")

	got, err := s.Ingest(context.Background(), Upload{Path: src, Size: 4, MIME: "image/jpeg", Folder: "home"})
	require.NoError(t, err)

	require.Len(t, assets.uploads, 1)
	assert.Equal(t, src, assets.uploads[0].path)
	assert.Equal(t, "room", assets.uploads[0].content)

	assert.False(t, got.Meta.Compressed())
	assert.Equal(t, int64(4), got.Meta.Size)
	assert.Equal(t, "image/jpeg", got.Meta.MIME)
	assert.Equal(t, 1200, got.Meta.Width)
	assert.Equal(t, 800, got.Meta.Height)

	assert.Empty(t, scratchFiles(t, s))
}

func TestIngest_UploadFailure(t *testing.T) {
	assets := &fakeAssets{uploadErr: errors.New("cdn down")}
	s := newTestService(t, &fakeCompressor{}, assets, nil)
	src := writeUpload(t, s, "spa.jpg", "spa")

	_, err := s.Ingest(context.Background(), Upload{Path: src, Size: 3, MIME: "image/jpeg", Folder: "gallery"})
	require.Error(t, err)

	var ce *common.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "UPLOAD_FAILED", ce.Code)
	assert.Empty(t, scratchFiles(t, s))
}

func TestIngest_InvalidFolder(t *testing.T) {
	assets := &fakeAssets{}
	s := newTestService(t, &fakeCompressor{}, assets, nil)
	src := writeUpload(t, s, "bar.jpg", "bar")

	_, err := s.Ingest(context.Background(), Upload{Path: src, Folder: "admin"})
	assert.ErrorIs(t, err, common.ErrInvalidFolder)
	assert.Empty(t, assets.uploads)
	assert.NoFileExists(t, src)
}

func TestIngest_CanceledContext(t *testing.T) {
	assets := &fakeAssets{}
	s := newTestService(t, &fakeCompressor{err: context.Canceled}, assets, nil)
	src := writeUpload(t, s, "gym.jpg", "gym")

	_, err := s.Ingest(context.Background(), Upload{Path: src, Folder: "gallery"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, assets.uploads)
}

func TestIngest_UsesCache(t *testing.T) {
	store := cache.NewManager(&config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	defer store.Close()

	comp := &fakeCompressor{}
	s := newTestService(t, comp, &fakeAssets{}, store)

	for i := 0; i < 2; i++ {
		src := writeUpload(t, s, "same.jpg", "same-bytes")
		_, err := s.Ingest(context.Background(), Upload{Path: src, Size: 10, MIME: "image/jpeg", Folder: "gallery"})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, comp.calls)
	assert.Equal(t, int64(1), store.Stats()["hits"])
}

func TestReplace(t *testing.T) {
	assets := &fakeAssets{deleteErr: errors.New("not found")}
	s := newTestService(t, &fakeCompressor{}, assets, nil)
	src := writeUpload(t, s, "suite.jpg", "suite")

	got, err := s.Replace(context.Background(), "gallery/old", Upload{Path: src, Size: 5, MIME: "image/jpeg", Folder: "gallery"})
	require.NoError(t, err)

	assert.Equal(t, []string{"gallery/old"}, assets.deletes)
	assert.Len(t, assets.uploads, 1)
	assert.True(t, got.Meta.Compressed())
}

func TestRemove(t *testing.T) {
	assets := &fakeAssets{}
	s := newTestService(t, &fakeCompressor{}, assets, nil)

	require.NoError(t, s.Remove(context.Background(), "home/banner"))
	assert.Equal(t, []string{"home/banner"}, assets.deletes)

	assert.ErrorIs(t, s.Remove(context.Background(), ""), common.ErrInvalidRequest)

	assets.deleteErr = errors.New("boom")
	err := s.Remove(context.Background(), "home/banner")
	var ce *common.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "UPLOAD_FAILED", ce.Code)
}
