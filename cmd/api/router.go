package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/trainer-attendance-api/api/swagger"
	"github.com/noah-isme/trainer-attendance-api/internal/handler"
	"github.com/noah-isme/trainer-attendance-api/internal/middleware"
	"github.com/noah-isme/trainer-attendance-api/internal/service"
	"github.com/noah-isme/trainer-attendance-api/pkg/config"
	"github.com/noah-isme/trainer-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/trainer-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/trainer-attendance-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth       *service.AuthService
	attendance *service.AttendanceService
	clients    *service.ClientService
	schedule   *service.ScheduleService
	metrics    *service.MetricsService
	db         *sqlx.DB
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.metrics))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	attendanceHandler := handler.NewAttendanceHandler(deps.attendance)
	scheduleHandler := handler.NewScheduleHandler(deps.schedule)
	clientHandler := handler.NewClientHandler(deps.clients)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/metrics/snapshot", metricsHandler.Snapshot)

	secured.GET("/schedule/today", scheduleHandler.Today)
	secured.GET("/schedule/upcoming", scheduleHandler.Upcoming)

	secured.POST("/attendance", attendanceHandler.SetStatus)
	secured.GET("/attendance/attending", scheduleHandler.Attending)
	secured.PUT("/attendance/:id/weights", attendanceHandler.RecordWeight)

	secured.GET("/clients", clientHandler.List)
	secured.PUT("/clients/:id/schedule", clientHandler.UpdateSchedule)
	secured.GET("/clients/:id/attendance", scheduleHandler.ClientHistory)
	secured.GET("/clients/:id/attendance/range", scheduleHandler.ClientRange)
	secured.GET("/clients/:id/attendance/monthly", scheduleHandler.ClientMonth)
	secured.GET("/clients/:id/attendance/monthly/export", scheduleHandler.ExportClientMonth)

	return r
}
