// Command devserver runs an in-memory backend implementing the auth and job
// endpoints the session client talks to.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workconnect/session/internal/backend"
	"github.com/workconnect/session/internal/config"
	"github.com/workconnect/session/internal/database"
	"github.com/workconnect/session/internal/middleware"
	"github.com/workconnect/session/internal/ratelimit"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting WorkConnect dev backend", zap.String("env", cfg.Env))

	issuer := token.NewIssuer(
		cfg.JWT.SecretKey,
		cfg.JWT.RefreshSecretKey,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	users := backend.NewDirectory()

	var opts []backend.ServiceOption

	// Redis is optional: it backs login rate limiting and refresh rotation
	if cfg.Server.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.Server.RedisURL, 5*time.Second)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")

		opts = append(opts, backend.WithRateLimiter(ratelimit.NewLimiter(
			redisClient.Client,
			cfg.RateLimit.Window,
			cfg.RateLimit.MaxAttempts,
			cfg.RateLimit.LockoutDuration,
		)))
		if cfg.JWT.RotateRefresh {
			opts = append(opts, backend.WithRotation(token.NewBlacklist(redisClient.Client)))
		}
	}

	if cfg.Server.AdminEmail != "" && cfg.Server.AdminPassword != "" {
		if _, err := users.Create(cfg.Server.AdminEmail, cfg.Server.AdminPassword, token.RoleAdmin, "Admin", "User"); err != nil {
			logger.Fatal("Failed to seed admin user", zap.Error(err))
		}
		logger.Info("Seeded admin user", zap.String("email", cfg.Server.AdminEmail))
	}

	service := backend.NewService(users, issuer, logger, opts...)
	handler := backend.NewHandler(service, backend.NewBoard())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := backend.NewRouter(handler, backend.RouterConfig{
		Issuer:         issuer,
		AllowedOrigins: middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
