package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/thuongvd0411/theodoihoctoan/api/swagger"
	"github.com/thuongvd0411/theodoihoctoan/internal/handler"
	"github.com/thuongvd0411/theodoihoctoan/internal/middleware"
	"github.com/thuongvd0411/theodoihoctoan/internal/repository"
	"github.com/thuongvd0411/theodoihoctoan/internal/service"
	"github.com/thuongvd0411/theodoihoctoan/pkg/cache"
	"github.com/thuongvd0411/theodoihoctoan/pkg/config"
	"github.com/thuongvd0411/theodoihoctoan/pkg/database"
	"github.com/thuongvd0411/theodoihoctoan/pkg/export"
	"github.com/thuongvd0411/theodoihoctoan/pkg/jobs"
	"github.com/thuongvd0411/theodoihoctoan/pkg/logger"
	corsmiddleware "github.com/thuongvd0411/theodoihoctoan/pkg/middleware/cors"
	reqidmiddleware "github.com/thuongvd0411/theodoihoctoan/pkg/middleware/requestid"
	"github.com/thuongvd0411/theodoihoctoan/pkg/storage"
)

// @title Theo Doi Hoc Toan API
// @version 1.0.0
// @description Private tutoring tracker: students, study records, monthly statistics, payroll and report exports
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
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, stats cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled)

	studentRepo := repository.NewStudentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)

	studentSvc := service.NewStudentService(studentRepo, cacheSvc, nil, logr)
	recordSvc := service.NewRecordService(recordRepo, studentRepo, cacheSvc, nil, logr)
	statsSvc := service.NewStatsService(recordRepo, studentRepo, cacheSvc, metricsSvc, cfg.Stats.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "theodoihoctoan",
		LicenseRequired:    cfg.License.Required,
		LicenseKeys:        cfg.License.Keys,
		MaxActivations:     cfg.License.MaxActivations,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			sugar.Fatalw("report storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(statsSvc, studentRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(rootCtx)
		defer reportQueue.Stop()

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(rootCtx)
		reportSvc.StartCleanup(rootCtx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	recordHandler := handler.NewRecordHandler(recordSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/snapshot", metricsHandler.Snapshot)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/license/activate", authHandler.ActivateLicense)

	licensed := authed.Group("")
	licensed.Use(middleware.License(authSvc))
	licensed.GET("/students", studentHandler.List)
	licensed.POST("/students", studentHandler.Create)
	licensed.GET("/students/:id", studentHandler.Get)
	licensed.PUT("/students/:id", studentHandler.Update)
	licensed.DELETE("/students/:id", studentHandler.Deactivate)
	licensed.GET("/students/:id/records", recordHandler.List)
	licensed.POST("/students/:id/records", recordHandler.Create)
	licensed.GET("/records/:id", recordHandler.Get)
	licensed.PUT("/records/:id", recordHandler.Update)
	licensed.DELETE("/records/:id", recordHandler.Delete)
	licensed.GET("/students/:id/stats", statsHandler.Monthly)
	licensed.GET("/payroll", statsHandler.Payroll)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		licensed.POST("/students/:id/reports", reportHandler.Create)
		licensed.GET("/reports/:id", reportHandler.Status)
		// The token carries its own HMAC, so downloads skip the JWT gate.
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	sugar.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
	}
}
