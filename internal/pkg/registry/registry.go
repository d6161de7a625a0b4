package registry

import (
	"fmt"
	"food_delivery/internal/pkg/config"
	"food_delivery/internal/pkg/events"
	"food_delivery/internal/pkg/push"
	"food_delivery/internal/pkg/uploader"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/cache"
	"food_delivery/pkg/metrics"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	Config    *config.Config
	DB        *gorm.DB
	SQLX      *sqlx.DB // 报表只读查询
	Redis     *redis.Client
	Cache     cache.CacheService
	Router    *gin.Engine
	Workers   *worker.WorkerPool
	Publisher events.Publisher
	Uploader  uploader.Uploader // 未配置 OSS 时为 nil
	Pusher    push.PushService  // 未配置推送时为 nil
	Metrics   *metrics.MetricsCollector
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules 按优先级初始化所有模块，优先级相同时按名称排序保证顺序稳定
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}
	return nil
}
