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
	"github.com/mvergara-dev/shop-services/internal/postgres"
	"github.com/mvergara-dev/shop-services/internal/product"
)

// @title Product Service API
// @version 1.0
// @description Product catalog: CRUD, filtered listing and availability checks.
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

	repo := product.NewPGRepo(pool)
	if err := repo.InitSchema(ctx); err != nil {
		log.WithError(err).Fatal("schema init failed")
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The order service calls GET and PUT directly, so the catalog API
	// stays open inside the service network.
	api := r.Group("/api/products")
	api.GET("", listProductsHandler(repo))
	api.POST("", createProductHandler(repo))
	api.GET("/:id", getProductHandler(repo))
	api.PUT("/:id", updateProductHandler(repo))
	api.DELETE("/:id", deleteProductHandler(repo))
	api.GET("/:id/availability", availabilityHandler(repo))

	log.WithField("addr", cfg.ProductSvcAddr).Info("product-service listening")
	if err := r.Run(cfg.ProductSvcAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
