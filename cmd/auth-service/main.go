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
	"github.com/mvergara-dev/shop-services/internal/token"
	"github.com/mvergara-dev/shop-services/internal/user"
)

// @title Auth Service API
// @version 1.0
// @description Registration, login and token introspection.
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

	repo := user.NewPGRepo(pool)
	if err := repo.InitSchema(ctx); err != nil {
		log.WithError(err).Fatal("schema init failed")
	}

	svc := user.NewService(repo, cfg.BcryptCost, log)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/auth")
	api.POST("/register", registerHandler(svc, tokens))
	api.POST("/login", loginHandler(svc, tokens))
	api.GET("/me", httpx.Auth(tokens), meHandler(svc))

	log.WithField("addr", cfg.AuthSvcAddr).Info("auth-service listening")
	if err := r.Run(cfg.AuthSvcAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
