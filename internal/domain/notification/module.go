package notification

import (
	"food_delivery/internal/domain/notification/handler"
	"food_delivery/internal/domain/notification/repository"
	"food_delivery/internal/domain/notification/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// NotificationModule 通知中心
type NotificationModule struct{}

func init() {
	registry.Register(&NotificationModule{})
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) Priority() int {
	return 5
}

func (m *NotificationModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewNotificationService(repository.NewNotificationRepository(ctx.DB))
	setupRoutes(ctx.Router, handler.NewNotificationHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.NotificationHandler) {
	g := r.Group("/notifications")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.List)
		g.GET("/unread-count", h.UnreadCount)
		g.PUT("/read-all", h.MarkAllRead)
		g.PUT("/viewed", h.MarkViewed)
		g.PUT("/:id/read", h.MarkRead)
	}
}
