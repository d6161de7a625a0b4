package main

import (
	"context"
	"errors"
	"food_delivery/docs"
	"food_delivery/internal/pkg/bootstrap"
	"food_delivery/internal/pkg/config"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/registry"
	"food_delivery/internal/pkg/validation"
	"food_delivery/pkg/database"
	"food_delivery/pkg/logger"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// 模块通过 init() 注册
	_ "food_delivery/internal/domain/ai"
	_ "food_delivery/internal/domain/common"
	_ "food_delivery/internal/domain/coupon"
	_ "food_delivery/internal/domain/dashboard"
	_ "food_delivery/internal/domain/notification"
	_ "food_delivery/internal/domain/order"
	_ "food_delivery/internal/domain/payment"
	_ "food_delivery/internal/domain/store"
	_ "food_delivery/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title Food Delivery API
// @version 1.0
// @description Storefront, checkout and store management for a food delivery platform.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadConfig()
	cfg := &config.GlobalConfig

	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		panic(err)
	}
	defer logger.Sync()

	validation.Register()

	infra, err := bootstrap.New(cfg, bootstrap.Options{Workers: true})
	if err != nil {
		logger.Log.Fatal("bootstrap failed", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitQPS), cfg.Server.RateLimitBurst)
	r.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.MetricsMiddleware(infra.Context.Metrics),
		cors.New(corsConfig(cfg.Server.AllowedOrigins)),
		middleware.RateLimitMiddleware(limiter),
	)

	r.GET("/health", func(c *gin.Context) {
		pool, err := database.PoolHealth(c.Request.Context(), infra.Context.DB)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": pool, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": pool})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.App.Env != "prod" {
		docs.SwaggerInfo.Host = ""
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	infra.Context.Router = r
	if err := registry.InitModules(infra.Context); err != nil {
		logger.Log.Fatal("init modules failed", zap.Error(err))
	}

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			case <-stopCleanup:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server shutdown", zap.Error(err))
	}
	infra.Close(ctx)
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Trace-ID")
	c.ExposeHeaders = []string{"X-Trace-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}
