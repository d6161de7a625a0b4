package user

import (
	"food_delivery/internal/domain/user/handler"
	"food_delivery/internal/domain/user/model"
	"food_delivery/internal/domain/user/repository"
	"food_delivery/internal/domain/user/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/otp"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 其他模块依赖登录态，最先初始化
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	userRepo := repository.NewUserRepository(ctx.DB)
	otpService := otp.NewOTPService(ctx.Redis, ctx.Config.App.TestOTPCode)
	userService := service.NewCachedUserService(service.NewUserService(userRepo, otpService), ctx.Cache)
	userHandler := handler.NewUserHandler(userService)

	setupRoutes(ctx.Router, userHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/otp", h.SendOTP)
		authGroup.POST("/login", h.LoginOrRegister)
	}

	userGroup := r.Group("/users")
	userGroup.Use(middleware.AuthMiddleware())
	{
		userGroup.GET("/me", h.GetMe)
		userGroup.PUT("/me", h.UpdateMe)
		userGroup.DELETE("/me", h.DeleteMe)
	}

	adminGroup := r.Group("/admin/users")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.RequireRoles(model.RoleAdmin))
	{
		adminGroup.GET("", h.GetUsers)
		adminGroup.GET("/:id", h.GetUser)
		adminGroup.PUT("/:id/role", h.UpdateRole)
		adminGroup.POST("/:id/ban", h.BanUser)
	}
}
