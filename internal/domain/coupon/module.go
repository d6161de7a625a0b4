package coupon

import (
	"food_delivery/internal/domain/coupon/handler"
	"food_delivery/internal/domain/coupon/repository"
	"food_delivery/internal/domain/coupon/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CouponModule 优惠券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	return 10
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	cRepo := repository.NewCouponRepository(ctx.DB)
	cService := service.NewCouponService(cRepo, ctx.Redis, ctx.Workers)
	setupRoutes(ctx.Router, handler.NewCouponHandler(cService))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler) {
	g := r.Group("/coupons")
	g.GET("", h.ListCoupons)

	authorized := g.Group("")
	authorized.Use(middleware.AuthMiddleware())
	{
		authorized.GET("/mine", h.ListMine)
		authorized.POST("/:id/claim", h.ClaimCoupon)

		admin := authorized.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("", h.CreateCoupon)
			admin.POST("/send", h.SendCoupon)
		}
	}
}
