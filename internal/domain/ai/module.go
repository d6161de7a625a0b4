package ai

import (
	"errors"
	"food_delivery/internal/domain/ai/client"
	"food_delivery/internal/domain/ai/handler"
	"food_delivery/internal/domain/ai/service"
	dashrepo "food_delivery/internal/domain/dashboard/repository"
	dashservice "food_delivery/internal/domain/dashboard/service"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"
	"food_delivery/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIModule 文本生成助手
type AIModule struct{}

func init() {
	registry.Register(&AIModule{})
}

func (m *AIModule) Name() string {
	return "ai"
}

func (m *AIModule) Priority() int {
	return 50
}

func (m *AIModule) Init(ctx *registry.ModuleContext) error {
	stores := storeservice.NewStoreService(storerepo.NewStoreRepository(ctx.DB), ctx.Cache, ctx.Uploader, ctx.Metrics)

	// 未配置时路由仍然注册，统一返回 503
	var llm service.Streamer
	c, err := client.NewClient(ctx.Config.AI)
	switch {
	case err == nil:
		llm = c
	case errors.Is(err, client.ErrNotConfigured):
		logger.Log.Warn("ai assistant not configured")
	default:
		logger.Log.Error("init ai client failed", zap.Error(err))
	}

	var dashboard dashservice.DashboardService
	if ctx.SQLX != nil {
		dashboard = dashservice.NewDashboardService(dashrepo.NewDashboardRepository(ctx.SQLX), stores, ctx.Cache)
	}

	svc := service.NewAIService(llm, stores, dashboard, ctx.Redis)
	setupRoutes(ctx.Router, handler.NewAIHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AIHandler) {
	g := r.Group("/ai")
	g.Use(middleware.AuthMiddleware(), middleware.RequireRoles(usermodel.RoleStoreOwner, usermodel.RoleAdmin))
	{
		g.POST("/stores/:id/describe", h.Describe)
		g.GET("/stores/:id/insights", h.Insights)
	}
}
