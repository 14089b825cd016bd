package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-fees-api/api/swagger"
	"github.com/noah-isme/school-fees-api/internal/handler"
	"github.com/noah-isme/school-fees-api/internal/middleware"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/repository"
	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/cache"
	"github.com/noah-isme/school-fees-api/pkg/config"
	"github.com/noah-isme/school-fees-api/pkg/database"
	"github.com/noah-isme/school-fees-api/pkg/events"
	"github.com/noah-isme/school-fees-api/pkg/export"
	"github.com/noah-isme/school-fees-api/pkg/gateway"
	"github.com/noah-isme/school-fees-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-fees-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-fees-api/pkg/storage"
)

// @title School Fees API
// @version 1.0.0
// @description Fee ledger, payment reconciliation and collection tracking
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Redis backs the tracking cache and the reconciliation event bus. The
	// service degrades to uncached reads and an in-process bus without it.
	var bus events.Bus
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, tracking cache disabled", zap.Error(err))
		bus = events.NewMemoryBus()
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		bus = events.NewRedisBus(redisClient, cfg.Events.ChannelPrefix, logr)
	}

	var verifier gateway.Verifier
	if cfg.Gateway.ServerKey != "" {
		verifier = gateway.NewMidtransVerifier(cfg.Gateway)
	} else {
		logr.Warn("gateway server key not set, online verification disabled")
	}

	receiptStore, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Fatal("failed to init receipt storage", zap.Error(err))
	}
	receiptSigner := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	feeRecordRepo := repository.NewFeeRecordRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	feeConfigRepo := repository.NewFeeConfigRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	instituteRepo := repository.NewInstituteRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Tracking.CacheTTL, logr, cacheRepo != nil)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	feeConfigSvc := service.NewFeeConfigService(feeConfigRepo, studentRepo, feeRecordRepo, nil, logr)
	batchSvc := service.NewBatchService(batchRepo, studentRepo, nil, logr)
	reconcileSvc := service.NewReconcileService(feeRecordRepo, verifier, bus, cacheSvc, metricsSvc, nil, logr)
	trackingSvc := service.NewTrackingService(feeRecordRepo, cacheSvc, cfg.Tracking.CacheTTL, logr)
	receiptSvc := service.NewReceiptService(feeRecordRepo, studentRepo, instituteRepo, export.NewReceiptPDF(), receiptStore, receiptSigner, logr)
	duesSvc := service.NewDuesService(feeRecordRepo, logr)

	if err := trackingSvc.StartRecomputeWorker(ctx, bus, cfg.Tracking.WorkerConcurrency); err != nil {
		logr.Fatal("failed to start tracking recompute worker", zap.Error(err))
	}
	defer trackingSvc.StopRecomputeWorker()

	feeConfigHandler := handler.NewFeeConfigHandler(feeConfigSvc)
	batchHandler := handler.NewBatchHandler(batchSvc)
	paymentHandler := handler.NewPaymentHandler(reconcileSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc, metricsSvc)
	receiptHandler := handler.NewReceiptHandler(receiptSvc)
	duesHandler := handler.NewDuesHandler(duesSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// The download link carries its own HMAC token, so it stays outside the
	// JWT group: receipts open from email and chat clients without a session.
	api.GET("/receipts/download", receiptHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(tokenSvc))

	admin := authed.Group("")
	admin.Use(middleware.RBAC(string(models.RoleAdmin)))
	{
		admin.GET("/fee-configs", feeConfigHandler.ListMonths)
		admin.GET("/fee-configs/:monthYear", feeConfigHandler.Get)
		admin.PUT("/fee-configs/:monthYear/columns", feeConfigHandler.SetColumns)
		admin.PUT("/fee-configs/:monthYear/class-amounts", feeConfigHandler.SetClassAmount)
		admin.DELETE("/fee-configs/:monthYear/columns/:column", feeConfigHandler.RemoveColumn)
		admin.POST("/fee-configs/:monthYear/publish",
			middleware.Audit(auditRepo, logr, models.AuditActionPublish, "fee_config"), feeConfigHandler.Publish)

		admin.POST("/batches",
			middleware.Audit(auditRepo, logr, models.AuditActionBatch, "batch"), batchHandler.Create)
		admin.GET("/batches", batchHandler.List)
		admin.GET("/batches/summaries", batchHandler.Summaries)
		admin.GET("/batches/:id", batchHandler.Get)
	}

	staff := authed.Group("")
	staff.Use(middleware.RBAC(string(models.RoleAdmin), string(models.RoleStaff)))
	{
		staff.POST("/payments/counter",
			middleware.Audit(auditRepo, logr, models.AuditActionCollect, "fee_record"), paymentHandler.CollectCounter)
		staff.POST("/payments/batches/:batchId/students/:studentId",
			middleware.Audit(auditRepo, logr, models.AuditActionCollect, "fee_record"), paymentHandler.CollectBatchMember)

		staff.GET("/tracking/classes", trackingHandler.TrackClasses)
		staff.GET("/tracking/defaulters", trackingHandler.Defaulters)
		staff.GET("/tracking/defaulters/export", trackingHandler.ExportDefaulters)
		staff.GET("/tracking/metrics", trackingHandler.Metrics)
	}

	authed.POST("/payments/verify",
		middleware.Audit(auditRepo, logr, models.AuditActionCollect, "fee_record"), paymentHandler.VerifyOnline)

	authed.GET("/receipts/:recordId", receiptHandler.Get)
	authed.POST("/receipts/:recordId/pdf",
		middleware.Audit(auditRepo, logr, models.AuditActionReceipt, "receipt"), receiptHandler.RenderPDF)

	self := authed.Group("")
	self.Use(middleware.RBAC(string(models.RoleAdmin), string(models.RoleStaff), "SELF"))
	{
		self.GET("/students/:studentId/dues", duesHandler.PendingDues)
		self.GET("/students/:studentId/payments", duesHandler.PaymentHistory)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown error", zap.Error(err))
	}
	logr.Info("server stopped")
}
