package order

import (
	couponrepo "food_delivery/internal/domain/coupon/repository"
	couponservice "food_delivery/internal/domain/coupon/service"
	"food_delivery/internal/domain/order/handler"
	"food_delivery/internal/domain/order/repository"
	"food_delivery/internal/domain/order/service"
	"food_delivery/internal/domain/payment/reconciler"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule 下单与出餐流程
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	stores := storeservice.NewStoreService(storerepo.NewStoreRepository(ctx.DB), ctx.Cache, ctx.Uploader, ctx.Metrics)
	coupons := couponservice.NewCouponService(couponrepo.NewCouponRepository(ctx.DB), ctx.Redis, ctx.Workers)
	authority := reconciler.New(ctx.DB, ctx.Workers, ctx.Publisher, ctx.Pusher, ctx.Metrics)

	svc := service.NewOrderService(repository.NewOrderRepository(ctx.DB), stores, coupons, authority, ctx.Publisher, ctx.Workers)
	setupRoutes(ctx.Router, handler.NewOrderHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Place)
		g.GET("", h.ListMine)
		g.GET("/:id", h.Get)
	}

	owner := r.Group("/owner")
	owner.Use(middleware.AuthMiddleware(), middleware.RequireRoles(usermodel.RoleStoreOwner, usermodel.RoleAdmin))
	{
		owner.GET("/stores/:id/orders", h.ListStoreOrders)
		owner.PUT("/orders/:id/status", h.UpdateStatus)
	}
}
