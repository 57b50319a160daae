package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "aklny/api/swagger" // swagger docs
	"aklny/internal/app"
	"aklny/internal/config"
	"aklny/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Aklny API
// @version         1.0
// @description     Authentication, catalogue, orders and live delivery tracking for the Aklny food delivery platform.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = appLogger.Sync() }()

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Startup failed", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		appLogger.Fatal("Server failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
