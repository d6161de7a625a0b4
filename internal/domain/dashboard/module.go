package dashboard

import (
	"food_delivery/internal/domain/dashboard/handler"
	"food_delivery/internal/domain/dashboard/repository"
	"food_delivery/internal/domain/dashboard/service"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"
	"food_delivery/pkg/logger"

	"github.com/gin-gonic/gin"
)

// DashboardModule 管理后台报表
type DashboardModule struct{}

func init() {
	registry.Register(&DashboardModule{})
}

func (m *DashboardModule) Name() string {
	return "dashboard"
}

func (m *DashboardModule) Priority() int {
	return 40
}

func (m *DashboardModule) Init(ctx *registry.ModuleContext) error {
	if ctx.SQLX == nil {
		logger.Log.Warn("reporting database not available, dashboard disabled")
		return nil
	}
	stores := storeservice.NewStoreService(storerepo.NewStoreRepository(ctx.DB), ctx.Cache, ctx.Uploader, ctx.Metrics)
	svc := service.NewDashboardService(repository.NewDashboardRepository(ctx.SQLX), stores, ctx.Cache)
	setupRoutes(ctx.Router, handler.NewDashboardHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.DashboardHandler) {
	r.GET("/admin/dashboard", middleware.AuthMiddleware(), middleware.AdminMiddleware(), h.Platform)
	r.GET("/owner/stores/:id/dashboard", middleware.AuthMiddleware(),
		middleware.RequireRoles(usermodel.RoleStoreOwner, usermodel.RoleAdmin), h.Store)
}
