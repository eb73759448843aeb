package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-api/api/swagger"
	"github.com/noah-isme/campus-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/service"
	"github.com/noah-isme/campus-api/pkg/cache"
	"github.com/noah-isme/campus-api/pkg/config"
	"github.com/noah-isme/campus-api/pkg/database"
	"github.com/noah-isme/campus-api/pkg/export"
	"github.com/noah-isme/campus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-api/pkg/middleware/requestid"
)

// @title Campus Academic API
// @version 1.0.0
// @description Prerequisite checks, enrollment, final exam registration, weekly schedules and personal agendas.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var (
		cacheRepo   service.CacheRepository
		cachePinger handler.Pinger
	)
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, prerequisite cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, "campus", logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo, cachePinger = redisRepo, redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.PrerequisiteTTL, logr, cacheRepo != nil)

	tx := database.NewTransactor(db)
	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	prereqRepo := repository.NewPrerequisiteRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	examRepo := repository.NewFinalExamRepository(db)
	registrationRepo := repository.NewExamRegistrationRepository(db)
	blockRepo := repository.NewTimeBlockRepository(db)

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)
	correlativesSvc := service.NewCorrelativesService(prereqRepo, subjectRepo, subjectRepo, enrollmentRepo, userRepo, tx, cacheSvc, metrics, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, subjectRepo, commissionRepo, correlativesSvc, tx,
		service.EnrollmentConfig{UniversalDepartment: cfg.Academic.UniversalDepartment}, metrics, validate, logr)
	registrationSvc := service.NewExamRegistrationService(registrationRepo, enrollmentRepo, examRepo, userRepo, correlativesSvc, tx, metrics, validate, logr)
	blockSvc := service.NewTimeBlockService(blockRepo, subjectRepo, commissionRepo, tx, metrics, validate, logr)
	agendaSvc := service.NewAgendaService(userRepo, enrollmentRepo, blockRepo, service.AgendaConfig{
		Location:    cfg.Academic.Location(),
		DefaultDays: cfg.Academic.AgendaDefaultDays,
		MaxDays:     cfg.Academic.AgendaMaxDays,
	}, logr)
	exportSvc := service.NewExportService(agendaSvc, export.NewRenderer(), logr)

	metricsHandler := handler.NewMetricsHandler(metrics, db, cachePinger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metrics))
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), authSvc, handler.Handlers{
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Prerequisites: handler.NewPrerequisiteHandler(correlativesSvc),
		FinalExams:    handler.NewFinalExamHandler(registrationSvc),
		TimeBlocks:    handler.NewTimeBlockHandler(blockSvc),
		Agenda:        handler.NewAgendaHandler(agendaSvc, exportSvc),
		Metrics:       metricsHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
