package main

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "resultpay/docs" // swagger docs

	"resultpay/internal/auth"
	"resultpay/internal/cache"
	"resultpay/internal/config"
	"resultpay/internal/db"
	"resultpay/internal/handler"
	"resultpay/internal/model"
	"resultpay/internal/notify"
	"resultpay/internal/provider"
	"resultpay/internal/render"
	"resultpay/internal/repository"
	"resultpay/internal/router"
	"resultpay/internal/service"
)

// @title Exam Result Unlock API
// @version 1.0
// @description Payment verification and reconciliation service for unlocking exam results.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.PaymentRecord{},
		&model.ExamResult{},
		&model.DeliveredResult{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheTTL := time.Duration(cfg.CacheTTLSec) * time.Second
	var statusCache cache.StatusCache
	if cfg.CacheBackend == "memory" {
		statusCache = cache.NewMemoryStatusCache(cacheTTL, 10000)
	} else {
		statusCache = cache.NewRedisStatusCache(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cacheTTL)
	}

	providerClient := provider.NewHTTPClient(
		cfg.ProviderBaseURL,
		cfg.ProviderSecretKey,
		time.Duration(cfg.ProviderTimeoutSec)*time.Second,
	)

	// Initialize repositories
	paymentRepo := repository.NewPaymentRepository(gormDB)
	resultRepo := repository.NewResultRepository(gormDB)

	// Initialize collaborators
	sessions := auth.NewSessionVerifier(cfg.SessionSecret)
	renderer := render.NewTextRenderer()
	var notifier notify.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	unlockFee, err := decimal.NewFromString(cfg.UnlockFee)
	if err != nil {
		log.Fatalf("invalid UNLOCK_FEE: %v", err)
	}

	// Initialize services
	completionService := service.NewCompletionService(resultRepo, renderer, notifier, logger)
	reconcileService := service.NewReconcileService(paymentRepo, providerClient, completionService, logger)
	verificationService := service.NewVerificationService(paymentRepo, statusCache, providerClient, reconcileService, completionService, logger)
	initiationService := service.NewInitiationService(paymentRepo, providerClient, unlockFee, cfg.Currency, logger)
	webhookService := service.NewWebhookService(paymentRepo, statusCache, completionService, logger)

	// Initialize handlers
	paymentHandler := handler.NewPaymentHandler(initiationService, verificationService, sessions)
	webhookHandler := handler.NewWebhookHandler(webhookService, cfg.WebhookSecret, logger)
	adminHandler := handler.NewAdminHandler(reconcileService, cfg.OperatorSecret)

	// Register routes
	router.Register(e, cfg, paymentHandler, webhookHandler, adminHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
