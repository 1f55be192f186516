package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed 隊列已關閉
	ErrQueueClosed = errors.New("queue manager is closed")
)

// Job 隊列中的匯入請求
type Job struct {
	URL    string
	Result chan JobResult
}

// JobResult 處理結果
type JobResult struct {
	Result *Result
	Error  error
}

// QueueStatus 隊列狀態
type QueueStatus struct {
	QueueLength    int  `json:"queue_length"`
	ProcessedCount int  `json:"processed_count"`
	FailedCount    int  `json:"failed_count"`
	MaxQueueSize   int  `json:"max_queue_size"`
	Workers        int  `json:"workers"`
	Closed         bool `json:"closed"`
}

// Queue 匯入隊列，由單一 worker 依序處理
type Queue struct {
	processor *Processor
	maxSize   int
	jobs      chan *Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	processed int64
	failed    int64
}

// NewQueue 創建隊列
func NewQueue(cfg config.QueueConfig, processor *Processor) *Queue {
	size := cfg.MaxSize
	if size <= 0 {
		size = 1
	}
	return &Queue{
		processor: processor,
		maxSize:   size,
		jobs:      make(chan *Job, size),
	}
}

// Start 啟動 worker；ctx 用於處理每個請求，取消後剩餘請求以錯誤結束
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for job := range q.jobs {
			q.handle(ctx, job)
		}
		common.LogInfo("Ingest worker stopped")
	}()
}

func (q *Queue) handle(ctx context.Context, job *Job) {
	var out JobResult
	if err := ctx.Err(); err != nil {
		out = JobResult{Result: &Result{URL: job.URL, Status: StatusFailed, Error: err.Error()}, Error: err}
	} else {
		res, err := q.processor.Process(ctx, job.URL)
		out = JobResult{Result: res, Error: err}
	}

	atomic.AddInt64(&q.processed, 1)
	if out.Error != nil {
		atomic.AddInt64(&q.failed, 1)
	}
	job.Result <- out
}

// Enqueue 將網址加入隊列，隊列滿時立即回傳 ErrQueueFull
func (q *Queue) Enqueue(ctx context.Context, rawURL string) (<-chan JobResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}

	job := &Job{URL: rawURL, Result: make(chan JobResult, 1)}
	select {
	case q.jobs <- job:
		common.LogInfo("Request enqueued",
			zap.String("url", rawURL),
			zap.Int("queue_length", len(q.jobs)),
			zap.Int("max_queue_size", q.maxSize),
		)
		return job.Result, nil
	default:
		return nil, ErrQueueFull
	}
}

// Status 獲取隊列狀態
func (q *Queue) Status() *QueueStatus {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return &QueueStatus{
		QueueLength:    len(q.jobs),
		ProcessedCount: int(atomic.LoadInt64(&q.processed)),
		FailedCount:    int(atomic.LoadInt64(&q.failed)),
		MaxQueueSize:   q.maxSize,
		Workers:        1,
		Closed:         q.closed,
	}
}

// Close 停止接受請求並等待 worker 處理完剩餘項目
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
