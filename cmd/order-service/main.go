package main

import (
	"context"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mvergara-dev/shop-services/docs"
	"github.com/mvergara-dev/shop-services/internal/config"
	"github.com/mvergara-dev/shop-services/internal/httpx"
	"github.com/mvergara-dev/shop-services/internal/order"
	"github.com/mvergara-dev/shop-services/internal/postgres"
	"github.com/mvergara-dev/shop-services/internal/token"
)

// @title Order Service API
// @version 1.0
// @description Order orchestration service: creation, cancellation and status tracking.
// @BasePath /
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load(log)
	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("postgres connect failed")
	}
	defer pool.Close()

	repo := order.NewPGRepo(pool)
	if err := repo.InitSchema(ctx); err != nil {
		log.WithError(err).Fatal("schema init failed")
	}

	gateway := order.NewHTTPGateway(cfg.ProductSvcBaseURL)
	svc := order.NewService(repo, gateway, log)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/orders", httpx.Auth(tokens))
	api.POST("", createOrderHandler(svc))
	api.GET("", listOrdersHandler(svc))
	api.GET("/:id", getOrderHandler(svc))
	api.PUT("/:id/status", updateOrderStatusHandler(svc))
	api.POST("/:id/cancel", cancelOrderHandler(svc))

	log.WithField("addr", cfg.OrderSvcAddr).Info("order-service listening")
	if err := r.Run(cfg.OrderSvcAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
