package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"go.uber.org/zap"
)

// Compressor 隊列使用的壓縮器
type Compressor interface {
	Compress(ctx context.Context, src []byte, opts compress.Options) (*compress.Result, error)
}

// Request 隊列請求
type Request struct {
	Context   context.Context
	RequestID string
	Source    []byte
	Options   compress.Options
	Result    chan Result
}

// Result 處理結果
type Result struct {
	Result *compress.Result
	Error  error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
	Running        bool  `json:"running"`
}

// Manager 壓縮隊列管理器
type Manager struct {
	config     config.QueueConfig
	compressor Compressor
	queue      chan *Request
	wg         sync.WaitGroup
	processed  int64
	failed     int64
	mu         sync.RWMutex
	started    bool
	closed     bool
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig, compressor Compressor) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	return &Manager{
		config:     cfg,
		compressor: compressor,
		queue:      make(chan *Request, cfg.MaxSize),
	}
}

// Start 啟動 worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.closed {
		return
	}
	m.started = true

	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("壓縮隊列已啟動",
		zap.Int("workers", m.config.Workers),
		zap.Int("max_queue_size", m.config.MaxSize),
	)
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for req := range m.queue {
		m.process(id, req)
	}
}

func (m *Manager) process(id int, req *Request) {
	// 排隊期間已取消的請求不再處理
	if err := req.Context.Err(); err != nil {
		atomic.AddInt64(&m.failed, 1)
		req.Result <- Result{Error: err}
		return
	}

	start := time.Now()
	res, err := m.compressor.Compress(req.Context, req.Source, req.Options)
	if err != nil {
		atomic.AddInt64(&m.failed, 1)
		common.LogWarn("壓縮任務失敗",
			zap.Int("worker", id),
			zap.String("request_id", req.RequestID),
			zap.Int("source_bytes", len(req.Source)),
			zap.Error(err),
		)
	} else {
		atomic.AddInt64(&m.processed, 1)
		common.LogDebug("壓縮任務完成",
			zap.Int("worker", id),
			zap.String("request_id", req.RequestID),
			zap.Int("quality", res.Quality),
			zap.Duration("duration", time.Since(start)),
		)
	}
	req.Result <- Result{Result: res, Error: err}
}

// Enqueue 將請求加入隊列
func (m *Manager) Enqueue(ctx context.Context, src []byte, opts compress.Options) (<-chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, common.ErrQueueClosed
	}

	req := &Request{
		Context:   ctx,
		RequestID: common.RequestIDFromContext(ctx),
		Source:    src,
		Options:   opts,
		Result:    make(chan Result, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, common.ErrQueueFull
	}
}

// Compress 加入隊列並等待結果
func (m *Manager) Compress(ctx context.Context, src []byte, opts compress.Options) (*compress.Result, error) {
	ch, err := m.Enqueue(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.Result, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
		Running:        m.started && !m.closed,
	}
}

// Close 關閉隊列並等待 worker 處理完剩餘請求
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	started := m.started
	m.mu.Unlock()

	if !started {
		// 沒有 worker，直接回覆剩餘請求
		for req := range m.queue {
			req.Result <- Result{Error: common.ErrQueueClosed}
		}
		return
	}

	m.wg.Wait()
	common.LogInfo("壓縮隊列已關閉",
		zap.Int64("processed", atomic.LoadInt64(&m.processed)),
		zap.Int64("failed", atomic.LoadInt64(&m.failed)),
	)
}
