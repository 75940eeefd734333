package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/training-center-api/api/swagger"
	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/cache"
	"github.com/noah-isme/training-center-api/pkg/config"
	"github.com/noah-isme/training-center-api/pkg/database"
	"github.com/noah-isme/training-center-api/pkg/export"
	"github.com/noah-isme/training-center-api/pkg/jobs"
	"github.com/noah-isme/training-center-api/pkg/logger"
	"github.com/noah-isme/training-center-api/pkg/scheduler"
)

// @title Training Center API
// @version 1.0.0
// @description Trainee device binding, enriched listings and dashboard analytics for a training center.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const refreshJobKey = "dashboard.overview"

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

	for _, warning := range cfg.Grading.Warnings {
		logr.Warn("grade thresholds ignored", zap.String("detail", warning))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	paging := service.ListingConfig{DefaultPerPage: cfg.Listing.DefaultPageSize, MaxPerPage: cfg.Listing.MaxPageSize}
	enricher := enrichment.New(models.NewGradeScale(cfg.Grading.Thresholds, models.DefaultGradeScale))

	traineeRepo := repository.NewTraineeRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	transactor := repository.NewTransactor(db)

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "training-center"),
		metrics,
		cfg.Dashboard.CacheTTL,
		logr,
		cfg.Dashboard.CacheEnabled && redisClient != nil,
	)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "training-center-api",
	})

	traineeSvc := service.NewTraineeService(traineeRepo, enricher, paging, metrics, validate, logr)
	svc := services{
		binding:    service.NewBindingService(traineeRepo, deviceRepo, transactor, metrics, validate, logr),
		trainees:   traineeSvc,
		export:     service.NewExportService(traineeSvc, export.NewCSVExporter(), export.NewXLSXExporter("Trainees"), export.NewPDFExporter(), logr),
		courses:    service.NewCourseService(courseRepo, enricher, paging, logr),
		groups:     service.NewGroupService(groupRepo, paging, validate, logr),
		devices:    service.NewDeviceService(deviceRepo, validate, logr),
		admins:     service.NewAdminService(adminRepo, groupRepo, deviceRepo, authSvc, paging, metrics, validate, logr),
		enrollment: service.NewEnrollmentService(courseRepo, transactor, cacheSvc, validate, logr),
		analytics: service.NewAnalyticsService(analyticsRepo, cacheSvc, metrics, service.AnalyticsConfig{
			RollingWindow: cfg.Analytics.RollingWindow,
			TopTrainees:   cfg.Analytics.TopTrainees,
			TopCourses:    cfg.Analytics.TopCourses,
			Scale:         models.NewGradeScale(cfg.Grading.DashboardThresholds, models.DefaultDashboardGradeScale),
			CacheTTL:      cfg.Dashboard.CacheTTL,
		}, logr),
		auth:    authSvc,
		metrics: metrics,
		db:      db,
	}

	if cfg.Dashboard.RefreshInterval > 0 {
		sched, queue, err := startDashboardRefresh(ctx, cfg.Dashboard.RefreshInterval, svc.analytics, logr)
		if err != nil {
			logr.Fatal("failed to schedule dashboard refresh", zap.Error(err))
		}
		defer queue.Stop()
		defer sched.Stop()
	}

	router := newRouter(cfg, logr, svc)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// startDashboardRefresh schedules overview recomputation. Ticks enqueue a coalesced job so a slow
// refresh never stacks up behind itself.
func startDashboardRefresh(ctx context.Context, interval time.Duration, analytics *service.AnalyticsService, logr *zap.Logger) (*scheduler.Scheduler, *jobs.Queue, error) {
	queue := jobs.NewQueue("dashboard-refresh", func(ctx context.Context, _ jobs.Job) error {
		return analytics.RefreshOverview(ctx)
	}, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Second, Logger: logr})
	queue.Start(ctx)

	sched := scheduler.New(logr)
	err := sched.Every(refreshJobKey, interval, func() {
		if _, err := queue.Enqueue(jobs.Job{Key: refreshJobKey}); err != nil {
			logr.Warn("dashboard refresh not enqueued", zap.Error(err))
		}
	})
	if err != nil {
		queue.Stop()
		return nil, nil, err
	}
	sched.Start()
	return sched, queue, nil
}
