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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/voluntrack/voluntrack-api/api/swagger"
	"github.com/voluntrack/voluntrack-api/internal/handler"
	"github.com/voluntrack/voluntrack-api/internal/middleware"
	"github.com/voluntrack/voluntrack-api/internal/repository"
	"github.com/voluntrack/voluntrack-api/internal/service"
	"github.com/voluntrack/voluntrack-api/pkg/cache"
	"github.com/voluntrack/voluntrack-api/pkg/config"
	"github.com/voluntrack/voluntrack-api/pkg/database"
	"github.com/voluntrack/voluntrack-api/pkg/jobs"
	"github.com/voluntrack/voluntrack-api/pkg/logger"
	corsmiddleware "github.com/voluntrack/voluntrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/voluntrack/voluntrack-api/pkg/middleware/requestid"
	"github.com/voluntrack/voluntrack-api/pkg/storage"
)

// @title VolunTrack API
// @version 1.0.0
// @description Volunteer management: departments, events, signups, contribution review and reporting
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	userRepo.OnCreated(profileRepo.ProvisioningHook())
	departmentRepo := repository.NewDepartmentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Services.
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "voluntrack-api",
		PostLoginRedirect:  cfg.Assets.PostLoginRedirect,
		PostLogoutRedirect: cfg.Assets.PostLogoutRedirect,
		StaticBaseURL:      cfg.Assets.StaticBaseURL,
	})
	profileService := service.NewProfileService(profileRepo, departmentRepo, validate, logr)
	departmentService := service.NewDepartmentService(departmentRepo, validate, logr)
	eventService := service.NewEventService(eventRepo, departmentRepo, signupRepo, userRepo, cacheRepo, validate, logr)
	signupService := service.NewSignupService(signupRepo, eventRepo, cacheRepo, logr)
	contributionService := service.NewContributionService(contributionRepo, eventRepo, signupRepo, profileRepo, userRepo, cacheRepo, validate, logr)
	dashboardService := service.NewDashboardService(eventRepo, contributionRepo, profileRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	reportService := service.NewReportService(reportRepo, cacheRepo, cfg.Reports.CacheTTL, logr)
	coordinatorService := service.NewCoordinatorService(userRepo, profileRepo, departmentRepo, cacheRepo, logr)
	exportService := service.NewExportService(exportJobRepo, contributionRepo, userRepo, exportStorage, exportSigner, logr)
	metricsService := service.NewMetricsService()
	exportService.AttachMetrics(metricsService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrapService := service.NewBootstrapService(userRepo, profileRepo, departmentRepo, service.BootstrapConfig{
		AdminEmail:    cfg.Bootstrap.AdminEmail,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		AdminName:     cfg.Bootstrap.AdminName,
		Departments:   cfg.Bootstrap.Departments,
	}, logr)
	if err := bootstrapService.Run(ctx); err != nil {
		logr.Sugar().Fatalw("bootstrap failed", "error", err)
	}

	exportQueue := jobs.NewQueue("exports", exportService.Handler(), jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportService.AttachQueue(exportQueue)
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	eventHandler := handler.NewEventHandler(eventService, signupService)
	contributionHandler := handler.NewContributionHandler(contributionService)
	approvalHandler := handler.NewApprovalHandler(contributionService)
	exportHandler := handler.NewExportHandler(exportService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(reportService)
	coordinatorHandler := handler.NewCoordinatorHandler(coordinatorService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	{
		authed.GET("/profile", profileHandler.Get)
		authed.PUT("/profile", profileHandler.Update)

		authed.GET("/departments", departmentHandler.List)
		authed.GET("/departments/:id", departmentHandler.Get)

		authed.GET("/events", eventHandler.List)
		authed.GET("/events/:id", eventHandler.Get)
		authed.POST("/events/:id/signup", eventHandler.Signup)
		authed.DELETE("/events/:id/signup", eventHandler.CancelSignup)
		authed.GET("/signups", eventHandler.MySignups)

		authed.POST("/logs", contributionHandler.Create)
		authed.GET("/logs", contributionHandler.ListMine)
		authed.POST("/logs/export", exportHandler.Enqueue)
		authed.GET("/logs/export/:id", exportHandler.Status)
		authed.GET("/logs/:id", contributionHandler.Get)

		authed.GET("/dashboard", dashboardHandler.Get)
	}

	// Signed token replaces bearer auth so exported files open from
	// email links and browser downloads.
	api.GET("/logs/export/:id/download", exportHandler.Download)

	reviewers := api.Group("")
	reviewers.Use(middleware.JWT(authService), middleware.Reviewers())
	{
		reviewers.POST("/events", eventHandler.Create)
		reviewers.PUT("/events/:id", eventHandler.Update)
		reviewers.PATCH("/events/:id/status", eventHandler.UpdateStatus)
		reviewers.DELETE("/events/:id", eventHandler.Delete)

		reviewers.GET("/approvals", approvalHandler.List)
		reviewers.POST("/approvals/:id/approve",
			middleware.Audit(userRepo, "APPROVE", "contributions"), approvalHandler.Approve)
		reviewers.POST("/approvals/:id/reject",
			middleware.Audit(userRepo, "REJECT", "contributions"), approvalHandler.Reject)

		reviewers.GET("/reports", reportHandler.Get)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authService), middleware.AdminOnly())
	{
		admin.POST("/departments", departmentHandler.Create)
		admin.PUT("/departments/:id", departmentHandler.Update)
		admin.DELETE("/departments/:id", departmentHandler.Delete)

		admin.GET("/users", coordinatorHandler.ListUsers)
		admin.POST("/users/:id/promote", coordinatorHandler.Promote)
		admin.POST("/users/:id/demote", coordinatorHandler.Demote)

		admin.PATCH("/logs/:id/status",
			middleware.Audit(userRepo, "STATUS_CORRECTION", "contributions"), contributionHandler.CorrectStatus)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
