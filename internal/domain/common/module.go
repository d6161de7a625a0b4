package common

import (
	"food_delivery/internal/pkg/common"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.Router, common.NewUploadHandler(ctx.Uploader))
	return nil
}

func setupRoutes(r *gin.Engine, h *common.UploadHandler) {
	r.POST("/upload", middleware.AuthMiddleware(), h.UploadFile)
}
