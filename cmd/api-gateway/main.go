package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/aadishkansal/stream-calendar-api/api/swagger"
	"github.com/aadishkansal/stream-calendar-api/internal/handler"
	"github.com/aadishkansal/stream-calendar-api/internal/middleware"
	"github.com/aadishkansal/stream-calendar-api/internal/repository"
	"github.com/aadishkansal/stream-calendar-api/internal/service"
	"github.com/aadishkansal/stream-calendar-api/pkg/cache"
	"github.com/aadishkansal/stream-calendar-api/pkg/config"
	"github.com/aadishkansal/stream-calendar-api/pkg/database"
	"github.com/aadishkansal/stream-calendar-api/pkg/export"
	"github.com/aadishkansal/stream-calendar-api/pkg/jobs"
	"github.com/aadishkansal/stream-calendar-api/pkg/logger"
	corsmiddleware "github.com/aadishkansal/stream-calendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aadishkansal/stream-calendar-api/pkg/middleware/requestid"
)

// @title Stream Calendar API
// @version 1.0.0
// @description Playlist schedule generation and streak tracking service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "stream-calendar-api",
	})
	scheduleSvc := service.NewScheduleService(projectRepo, videoRepo, cacheSvc, metricsSvc, logr)

	warmer := jobs.NewWarmer(func(ctx context.Context, projectID string) error {
		_, _, err := scheduleSvc.Events(ctx, projectID)
		return err
	}, jobs.WarmerConfig{Workers: 2, Logger: logr})
	warmer.Start(context.Background())
	defer warmer.Stop()

	projectSvc := service.NewProjectService(projectRepo, videoRepo, &warmingInvalidator{schedule: scheduleSvc, warmer: warmer, logger: logr}, projectRepo, validate, logr)
	streakSvc := service.NewStreakService(projectRepo, scheduleSvc, videoRepo, logr)
	exportSvc := service.NewExportService(projectRepo, scheduleSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	scheduleHandler := handler.NewScheduleHandler(projectSvc, scheduleSvc, exportSvc)
	streakHandler := handler.NewStreakHandler(projectSvc, streakSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		projects := api.Group("/projects", middleware.JWT(authSvc))
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.PUT("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.GET("/:id/videos", projectHandler.Videos)
			projects.GET("/:id/schedule", scheduleHandler.Events)
			projects.GET("/:id/streak", streakHandler.Summary)
			projects.PUT("/:id/videos/:index/completion", streakHandler.SetCompletion)
			if cfg.Export.Enabled {
				projects.GET("/:id/schedule/export", scheduleHandler.Export)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// warmingInvalidator drops the cached schedule and queues a background
// recompute so the next read after a project change is still a cache hit.
type warmingInvalidator struct {
	schedule *service.ScheduleService
	warmer   *jobs.Warmer
	logger   *zap.Logger
}

func (w *warmingInvalidator) Invalidate(ctx context.Context, projectID string) {
	w.schedule.Invalidate(ctx, projectID)
	if err := w.warmer.Enqueue(projectID, "project changed"); err != nil {
		w.logger.Sugar().Debugw("schedule warm-up skipped", "project_id", projectID, "error", err)
	}
}
