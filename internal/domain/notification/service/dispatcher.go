package service

import (
	"context"
	"food_delivery/internal/pkg/push"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/logger"

	"go.uber.org/zap"
)

// Dispatcher 通过工作池异步推送到设备
type Dispatcher struct {
	pusher  push.PushService
	workers *worker.WorkerPool
}

// NewDispatcher pusher 为 nil 时推送被忽略
func NewDispatcher(pusher push.PushService, workers *worker.WorkerPool) *Dispatcher {
	return &Dispatcher{pusher: pusher, workers: workers}
}

// Push 入队一条设备推送，不阻塞调用方
func (d *Dispatcher) Push(userID, title, body string, ext map[string]string) {
	if d == nil || d.pusher == nil || userID == "" {
		return
	}
	task := worker.Task{
		Name: "push_notification",
		Run: func(ctx context.Context) error {
			return d.pusher.PushToAccount(userID, title, body, ext)
		},
	}
	if d.workers == nil {
		if err := task.Run(context.Background()); err != nil {
			logger.Log.Warn("push failed", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}
	d.workers.AddTask(task)
}
