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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/repository"
	"github.com/noah-isme/trainer-attendance-api/internal/service"
	"github.com/noah-isme/trainer-attendance-api/pkg/cache"
	"github.com/noah-isme/trainer-attendance-api/pkg/config"
	"github.com/noah-isme/trainer-attendance-api/pkg/database"
	"github.com/noah-isme/trainer-attendance-api/pkg/logger"
)

// @title Trainer Attendance API
// @version 1.0.0
// @description Client schedules and session attendance for personal trainers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Schedule.CacheEnabled {
		redisClient, redisErr := cache.NewRedis(ctx, cfg.Redis)
		if redisErr != nil {
			logr.Warn("redis unavailable, schedule cache disabled", zap.Error(redisErr))
		} else {
			repo := repository.NewCacheRepository(redisClient, "trainer-attendance", logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)

	users := repository.NewUserRepository(db)
	clients := repository.NewClientRepository(db)
	records := repository.NewAttendanceRepository(db)

	validate := validator.New()
	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	attendanceSvc := service.NewAttendanceService(authSvc, records, clients, cacheSvc, metrics, validate, logr)
	clientSvc := service.NewClientService(authSvc, clients, cacheSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(authSvc, records, clients, cacheSvc, logr, service.ScheduleConfig{
		Location:           cfg.Schedule.Location(),
		DefaultSessionTime: cfg.Schedule.DefaultSessionTime,
		UpcomingMaxDays:    cfg.Schedule.UpcomingMaxDays,
		CacheTTL:           cfg.Schedule.CacheTTL,
		ExportsEnabled:     cfg.Exports.Enabled,
	})

	router := newRouter(cfg, logr, routerDeps{
		auth:       authSvc,
		attendance: attendanceSvc,
		clients:    clientSvc,
		schedule:   scheduleSvc,
		metrics:    metrics,
		db:         db,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
