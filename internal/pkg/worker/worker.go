package worker

import (
	"context"
	"fmt"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/metrics"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task 后台任务 (推送通知、发布事件、优惠券落库等)
type Task struct {
	Name  string
	Run   func(ctx context.Context) error
	Retry int // 已重试次数
}

type WorkerPool struct {
	TaskQueue  chan Task
	RetryQueue chan Task // 重试队列
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 每次重试的基础延迟，按重试次数线性递增
	Timeout    time.Duration // 单个任务超时

	metrics *metrics.MetricsCollector
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
	mu      sync.RWMutex
}

func NewWorkerPool(workerNum int, bufferSize int, m *metrics.MetricsCollector) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize <= 0 {
		bufferSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		TaskQueue:  make(chan Task, bufferSize),
		RetryQueue: make(chan Task, bufferSize/2+1),
		WorkerNum:  workerNum,
		MaxRetry:   3,
		RetryDelay: time.Second,
		Timeout:    30 * time.Second,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	go p.retryWorker()
	logger.Log.Info("worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止接收新任务，等待队列中已有任务处理完毕或 ctx 到期
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.TaskQueue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for task := range p.TaskQueue {
		err := p.processTask(task)
		if err == nil {
			p.record(task.Name, "ok")
			continue
		}

		logger.Log.Warn("task failed",
			zap.Int("worker", id),
			zap.String("task", task.Name),
			zap.Int("retry", task.Retry),
			zap.Error(err),
		)

		if task.Retry < p.MaxRetry {
			task.Retry++
			select {
			case p.RetryQueue <- task:
				p.record(task.Name, "retry")
			default:
				p.logFailedTask(task, err)
			}
		} else {
			p.logFailedTask(task, err)
		}
	}
}

func (p *WorkerPool) retryWorker() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(task.Retry) * p.RetryDelay):
			case <-p.ctx.Done():
				p.logFailedTask(task, context.Canceled)
				return
			}
			if !p.enqueue(task) {
				p.logFailedTask(task, nil)
			}
		}
	}
}

func (p *WorkerPool) processTask(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.Timeout)
	defer cancel()
	return task.Run(ctx)
}

func (p *WorkerPool) logFailedTask(task Task, err error) {
	p.record(task.Name, "dropped")
	logger.Log.Error("task failed permanently",
		zap.String("task", task.Name),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)
}

func (p *WorkerPool) enqueue(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.TaskQueue <- task:
		return true
	default:
		return false
	}
}

// AddTask 非阻塞入队；队列已满或已关闭时任务被丢弃并记录
func (p *WorkerPool) AddTask(task Task) {
	if !p.enqueue(task) {
		logger.Log.Warn("worker pool queue full or closed, dropping task", zap.String("task", task.Name))
		p.logFailedTask(task, nil)
	}
}

func (p *WorkerPool) record(task, result string) {
	if p.metrics != nil {
		p.metrics.RecordWorkerTask(task, result)
	}
}
