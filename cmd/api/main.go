package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/marksvc/marks-api/internal/handler"
	"github.com/marksvc/marks-api/internal/middleware"
	"github.com/marksvc/marks-api/internal/models"
	"github.com/marksvc/marks-api/internal/repository"
	"github.com/marksvc/marks-api/internal/service"
	"github.com/marksvc/marks-api/pkg/cache"
	"github.com/marksvc/marks-api/pkg/config"
	"github.com/marksvc/marks-api/pkg/database"
	"github.com/marksvc/marks-api/pkg/logger"
	corsmiddleware "github.com/marksvc/marks-api/pkg/middleware/cors"
	reqidmiddleware "github.com/marksvc/marks-api/pkg/middleware/requestid"
	"github.com/marksvc/marks-api/pkg/storage"
)

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

	// The lookup cache is an optimisation; the service runs without it.
	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, lookup cache disabled", "error", err)
	} else {
		redisClient = client
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	staffRepo := repository.NewStaffRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	markRepo := repository.NewMarkRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(staffRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "marks-api",
	})
	ingestSvc := service.NewIngestService(markRepo, uploadRepo, cacheRepo, metricsSvc, logr)
	lookupSvc := service.NewLookupService(studentRepo, markRepo, cacheRepo, metricsSvc, logr, cfg.Uploads.LookupCacheTTL)
	uploadSvc := service.NewUploadService(uploadRepo, store, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	uploadHandler := handler.NewUploadHandler(ingestSvc, store, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.ProcessTimeout)
	lookupHandler := handler.NewLookupHandler(lookupSvc)
	adminHandler := handler.NewAdminHandler(uploadSvc, authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/students/lookup", lookupHandler.Lookup)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/upload-marks", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), uploadHandler.UploadMarks)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/uploads", adminHandler.ListUploads)
	admin.DELETE("/uploads", adminHandler.DeleteUpload)
	admin.POST("/staff", adminHandler.CreateStaff)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
