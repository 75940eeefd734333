package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/handler"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/config"
	"github.com/noah-isme/training-center-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/training-center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/training-center-api/pkg/middleware/requestid"
)

type services struct {
	binding    *service.BindingService
	trainees   *service.TraineeService
	export     *service.ExportService
	courses    *service.CourseService
	groups     *service.GroupService
	devices    *service.DeviceService
	admins     *service.AdminService
	enrollment *service.EnrollmentService
	analytics  *service.AnalyticsService
	auth       *service.AuthService
	metrics    *service.MetricsService
	db         *sqlx.DB
}

func newRouter(cfg *config.Config, logr *zap.Logger, svc services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.metrics))
	r.Use(middleware.ResponseMeta())

	metricsHandler := handler.NewMetricsHandler(svc.metrics, svc.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	bindingHandler := handler.NewBindingHandler(svc.binding)
	traineeHandler := handler.NewTraineeHandler(svc.trainees, svc.export, cfg.Import.MaxFileSizeBytes)
	courseHandler := handler.NewCourseHandler(svc.courses)
	groupHandler := handler.NewGroupHandler(svc.groups)
	deviceHandler := handler.NewDeviceHandler(svc.devices)
	adminHandler := handler.NewAdminHandler(svc.admins, cfg.Import.MaxFileSizeBytes)
	enrollmentHandler := handler.NewEnrollmentHandler(svc.enrollment)
	dashboardHandler := handler.NewDashboardHandler(svc.analytics)

	api := r.Group(cfg.APIPrefix)
	api.POST("/trainees/login", bindingHandler.Login)
	api.POST("/trainees/login/phone", bindingHandler.LoginWithPhone)
	api.POST("/trainees/logout", bindingHandler.Logout)
	api.POST("/trainees/progress", enrollmentHandler.Report)
	api.POST("/admins/login", adminHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.auth), middleware.RequireRoles(models.RoleAdmin))

	trainees := secured.Group("/trainees")
	trainees.GET("", traineeHandler.List)
	trainees.GET("/all", traineeHandler.ListAll)
	trainees.GET("/export", traineeHandler.Export)
	trainees.POST("", traineeHandler.Create)
	trainees.PUT("/:id", traineeHandler.Update)
	trainees.POST("/import", traineeHandler.Import)

	courses := secured.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/all", courseHandler.ListAll)

	groups := secured.Group("/groups")
	groups.GET("", groupHandler.List)
	groups.GET("/all", groupHandler.ListAll)
	groups.GET("/category/:category", groupHandler.ListByCategory)
	groups.POST("", groupHandler.Create)

	admins := secured.Group("/admins")
	admins.GET("", adminHandler.List)
	admins.GET("/all", adminHandler.ListAll)
	admins.POST("", adminHandler.Create)
	admins.POST("/import", adminHandler.Import)

	secured.POST("/devices", deviceHandler.Register)
	secured.PUT("/enrollments/:id", enrollmentHandler.Update)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/overview", dashboardHandler.Overview)
	dashboard.GET("/users", dashboardHandler.Users)
	dashboard.GET("/catalog", dashboardHandler.Catalog)
	dashboard.GET("/vision", dashboardHandler.Vision)
	dashboard.GET("/time-spent", dashboardHandler.TimeSpent)
	dashboard.GET("/outcomes", dashboardHandler.Outcomes)
	dashboard.GET("/top-trainees", dashboardHandler.TopTrainees)
	dashboard.GET("/search", dashboardHandler.Search)

	return r
}
