// Package bootstrap connects the shared infrastructure used by the HTTP server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"food_delivery/internal/pkg/config"
	"food_delivery/internal/pkg/events"
	"food_delivery/internal/pkg/push"
	"food_delivery/internal/pkg/registry"
	"food_delivery/internal/pkg/uploader"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/cache"
	"food_delivery/pkg/database"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Infra 基础设施句柄，Close 按依赖逆序释放
type Infra struct {
	Context *registry.ModuleContext
	closers []func(context.Context) error
}

// Options 控制可选组件
type Options struct {
	// Workers 为 false 时不启动 worker 池，任务同步执行
	Workers bool
}

func New(cfg *config.Config, opts Options) (*Infra, error) {
	in := &Infra{}
	m := metrics.GetGlobalCollector()

	db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, err
	}
	in.closers = append(in.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if err := database.RegisterPoolCollector(prometheus.DefaultRegisterer, db, "primary"); err != nil {
		logger.Log.Warn("db pool metrics not registered", zap.Error(err))
	}

	ctx := &registry.ModuleContext{
		Config:    cfg,
		DB:        db,
		Metrics:   m,
		Publisher: events.NoopPublisher{},
	}

	if sqlxDB, err := database.InitSQLX(cfg.Database); err != nil {
		logger.Log.Warn("reporting connection unavailable", zap.Error(err))
	} else {
		ctx.SQLX = sqlxDB
		in.closers = append(in.closers, func(context.Context) error { return sqlxDB.Close() })
	}

	if rdb, err := database.InitRedis(cfg.Redis); err != nil {
		// 缓存、限流、领券依赖 Redis，只在开发环境降级
		if cfg.App.Env == "prod" {
			in.Close(context.Background())
			return nil, err
		}
		logger.Log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
		ctx.Cache = cache.NewMemoryCache()
	} else {
		ctx.Redis = rdb
		ctx.Cache = cache.NewRedisCache(rdb, cfg.App.Env)
		in.closers = append(in.closers, func(context.Context) error { return rdb.Close() })
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Log.Warn("rabbitmq unavailable, events will be dropped", zap.Error(err))
		} else {
			ctx.Publisher = pub
			in.closers = append(in.closers, func(context.Context) error { return pub.Close() })
		}
	}

	// 接口字段只在构造成功时赋值，避免 typed nil
	if u, err := uploader.NewAliyunOSSUploader(cfg.OSS); err != nil {
		logger.Log.Warn("object storage not configured", zap.Error(err))
	} else {
		ctx.Uploader = u
	}
	if p, err := push.NewAliyunPushService(cfg.Push); err != nil {
		if !errors.Is(err, push.ErrPushNotConfigured) {
			logger.Log.Warn("push service init failed", zap.Error(err))
		}
	} else {
		ctx.Pusher = p
	}

	if opts.Workers {
		pool := worker.NewWorkerPool(cfg.App.Workers, cfg.App.QueueSize, m)
		pool.Start()
		ctx.Workers = pool
		in.closers = append(in.closers, pool.Stop)
	}

	in.Context = ctx
	return in, nil
}

// Close 逆序关闭；worker 池最先停止，保证排队任务还能访问数据库
func (in *Infra) Close(ctx context.Context) {
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](ctx); err != nil {
			logger.Log.Warn("shutdown step failed", zap.Error(err))
		}
	}
}
