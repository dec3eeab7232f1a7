package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubCompressor 依來源長度回傳結果，可阻塞直到 release 關閉
type stubCompressor struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (s *stubCompressor) Compress(ctx context.Context, src []byte, opts compress.Options) (*compress.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &compress.Result{Size: len(src), Quality: opts.StartQuality, Format: "webp"}, nil
}

func TestManager_Compress(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 2, MaxSize: 4}, &stubCompressor{})
	m.Start()
	defer m.Close()

	res, err := m.Compress(context.Background(), []byte("lobby"), compress.Options{StartQuality: 70})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Size)
	assert.Equal(t, 70, res.Quality)

	status := m.GetQueueStatus()
	assert.Equal(t, int64(1), status.ProcessedCount)
	assert.Equal(t, 2, status.Workers)
	assert.True(t, status.Running)
}

func TestManager_CompressError(t *testing.T) {
	failure := &compress.EncodeError{Op: "encode", Quality: 60, Err: errors.New("boom")}
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, &stubCompressor{err: failure})
	m.Start()
	defer m.Close()

	_, err := m.Compress(context.Background(), []byte("x"), compress.Options{})
	assert.True(t, compress.IsEncodeError(err))
	assert.Equal(t, int64(1), m.GetQueueStatus().FailedCount)
}

func TestManager_FailureLogsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := common.Logger
	common.Logger = zap.New(core)
	defer func() { common.Logger = prev }()

	failure := &compress.EncodeError{Op: "decode", Err: errors.New("image 60000x60000 exceeds pixel limit")}
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, &stubCompressor{err: failure})
	m.Start()
	defer m.Close()

	ctx := common.WithRequestID(context.Background(), "req-lobby-42")
	_, err := m.Compress(ctx, []byte("huge"), compress.Options{})
	require.Error(t, err)

	entries := logs.FilterMessage("壓縮任務失敗").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-lobby-42", fields["request_id"])
	assert.Equal(t, int64(4), fields["source_bytes"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestManager_QueueFull(t *testing.T) {
	// 未啟動 worker，請求只會留在隊列中
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, &stubCompressor{})

	_, err := m.Enqueue(context.Background(), []byte("a"), compress.Options{})
	require.NoError(t, err)

	_, err = m.Enqueue(context.Background(), []byte("b"), compress.Options{})
	assert.ErrorIs(t, err, common.ErrQueueFull)

	m.Close()
}

func TestManager_CloseAnswersPending(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 2}, &stubCompressor{})

	ch, err := m.Enqueue(context.Background(), []byte("a"), compress.Options{})
	require.NoError(t, err)

	m.Close()

	res := <-ch
	assert.ErrorIs(t, res.Error, common.ErrQueueClosed)

	_, err = m.Enqueue(context.Background(), []byte("b"), compress.Options{})
	assert.ErrorIs(t, err, common.ErrQueueClosed)
	assert.False(t, m.GetQueueStatus().Running)
}

func TestManager_CloseDrainsWorkers(t *testing.T) {
	stub := &stubCompressor{release: make(chan struct{})}
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 4}, stub)
	m.Start()

	var chans []<-chan Result
	for i := 0; i < 3; i++ {
		ch, err := m.Enqueue(context.Background(), []byte("room"), compress.Options{})
		require.NoError(t, err)
		chans = append(chans, ch)
	}

	close(stub.release)
	m.Close()

	for _, ch := range chans {
		res := <-ch
		require.NoError(t, res.Error)
		assert.Equal(t, 4, res.Result.Size)
	}
	assert.Equal(t, int64(3), m.GetQueueStatus().ProcessedCount)
}

func TestManager_CompressHonoursContext(t *testing.T) {
	stub := &stubCompressor{release: make(chan struct{})}
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, stub)
	m.Start()
	defer func() {
		close(stub.release)
		m.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Compress(ctx, []byte("x"), compress.Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
