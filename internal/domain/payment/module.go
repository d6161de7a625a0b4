package payment

import (
	"context"
	"errors"
	orderrepo "food_delivery/internal/domain/order/repository"
	"food_delivery/internal/domain/payment/gateway"
	"food_delivery/internal/domain/payment/handler"
	"food_delivery/internal/domain/payment/reconciler"
	"food_delivery/internal/domain/payment/repository"
	"food_delivery/internal/domain/payment/service"
	"food_delivery/internal/domain/payment/strategy"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"
	"food_delivery/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 依赖订单与门店
	return 30
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	svc := Build(ctx)
	setupRoutes(ctx.Router, handler.NewPaymentHandler(svc))
	return nil
}

// Build 组装支付服务并按配置注册渠道，cmd/deliveryctl 的对账命令也使用它
func Build(ctx *registry.ModuleContext) service.PaymentService {
	deps := service.Deps{
		Payments:  repository.NewPaymentRepository(ctx.DB),
		Orders:    orderrepo.NewOrderRepository(ctx.DB),
		Stores:    storeservice.NewStoreService(storerepo.NewStoreRepository(ctx.DB), ctx.Cache, ctx.Uploader, ctx.Metrics),
		Authority: reconciler.New(ctx.DB, ctx.Workers, ctx.Publisher, ctx.Pusher, ctx.Metrics),
		Redis:     ctx.Redis,
		Workers:   ctx.Workers,
		Metrics:   ctx.Metrics,
	}
	cfg := ctx.Config

	// 卡/PIX 网关
	client, err := gateway.NewClient(cfg.Gateway, ctx.Metrics)
	switch {
	case err == nil:
		deps.Tokenizer = client
	case errors.Is(err, gateway.ErrNotConfigured):
		logger.Log.Warn("card/pix gateway not configured")
	default:
		logger.Log.Error("init gateway client failed", zap.Error(err))
	}

	svc := service.NewPaymentService(deps)
	if client != nil {
		svc.RegisterStrategy(strategy.NewCardStrategy(client, cfg.Gateway.StatementDescriptor))
		svc.RegisterStrategy(strategy.NewPixStrategy(client, cfg.Gateway.PixExpiresIn))
		svc.RegisterNotifyParser(strategy.NewPagarmeNotifyParser(cfg.Gateway.WebhookSecret))
	}

	// 支付宝
	if cfg.Alipay.AppID != "" {
		alipay, err := strategy.NewAlipayStrategy(cfg.Alipay)
		if err != nil {
			logger.Log.Error("init alipay strategy failed", zap.Error(err))
		} else {
			svc.RegisterStrategy(alipay)
			svc.RegisterNotifyParser(strategy.NewAlipayNotifyParser(alipay))
		}
	}

	// 微信支付
	if cfg.Wechat.MchID != "" {
		wechat, err := strategy.NewWechatStrategy(context.Background(), cfg.Wechat)
		if err != nil {
			logger.Log.Error("init wechat pay strategy failed", zap.Error(err))
		} else {
			svc.RegisterStrategy(wechat)
			svc.RegisterNotifyParser(strategy.NewWechatNotifyParser(wechat))
		}
	}
	return svc
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payment")

	// 回调无需鉴权，但需验签
	g.POST("/webhook/pagarme", h.GatewayWebhook)
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)
	g.GET("/methods", h.Methods)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/tokenize", h.Tokenize)
		auth.POST("/checkout", h.Checkout)
		auth.GET("/orders/:id", h.GetForOrder)
		auth.POST("/orders/:id/cancel", h.Cancel)
	}

	manage := g.Group("")
	manage.Use(middleware.AuthMiddleware(), middleware.RequireRoles(usermodel.RoleStoreOwner, usermodel.RoleAdmin))
	{
		manage.POST("/orders/:id/refund", h.Refund)
	}

	// 兼容订单路由下的取消入口
	r.POST("/orders/:id/cancel", middleware.AuthMiddleware(), h.Cancel)
}
