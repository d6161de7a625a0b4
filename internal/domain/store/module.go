package store

import (
	"food_delivery/internal/domain/store/handler"
	"food_delivery/internal/domain/store/repository"
	"food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// StoreModule 门店与菜单
type StoreModule struct{}

func init() {
	registry.Register(&StoreModule{})
}

func (m *StoreModule) Name() string {
	return "store"
}

func (m *StoreModule) Priority() int {
	return 10
}

func (m *StoreModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewStoreRepository(ctx.DB)
	svc := service.NewStoreService(repo, ctx.Cache, ctx.Uploader, ctx.Metrics)
	setupRoutes(ctx.Router, handler.NewStoreHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.StoreHandler) {
	public := r.Group("/stores")
	{
		public.GET("", h.ListStores)
		public.GET("/:id", h.GetStore)
		public.GET("/:id/menu", h.GetMenu)
	}

	owner := r.Group("/owner")
	owner.Use(middleware.AuthMiddleware(), middleware.RequireRoles(usermodel.RoleStoreOwner, usermodel.RoleAdmin))
	{
		owner.GET("/stores", h.ListOwnedStores)
		owner.POST("/stores", h.CreateStore)
		owner.PUT("/stores/:id", h.UpdateStore)
		owner.PUT("/stores/:id/open", h.SetOpen)
		owner.DELETE("/stores/:id", h.DeleteStore)
		owner.POST("/stores/:id/image", h.UploadStoreImage)
		owner.GET("/stores/:id/products", h.ListProducts)
		owner.POST("/stores/:id/products", h.CreateProduct)
		owner.PUT("/products/:id", h.UpdateProduct)
		owner.DELETE("/products/:id", h.DeleteProduct)
		owner.POST("/products/:id/image", h.UploadProductImage)
	}
}
