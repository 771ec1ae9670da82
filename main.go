package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/common/middleware"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/importer"
	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "storefront-service"

type stores struct {
	categories  repository.CategoryRepo
	products    repository.ProductRepo
	users       repository.UserRepo
	subscribers repository.SubscriberRepo
	close       func(context.Context) error
}

func main() {
	log, err := logger.Initialize(getEnv("APP_ENV", "development"), nil)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 1. Initialization ---

	var awsCfg sdkaws.Config
	if cfg.needsAWS() {
		awsCfg, err = awspkg.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			zap.L().Fatal("Failed to load AWS config", zap.Error(err))
		}
	}

	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.LogGroup, serviceName)
		if err != nil {
			zap.L().Warn("CloudWatch Logs disabled", zap.Error(err))
		} else if log, err = logger.Initialize(cfg.Env, cw); err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	}

	var metrics *awspkg.MetricsClient
	if cfg.MetricsEnabled {
		metrics = awspkg.NewMetricsClient(awsCfg, "Storefront", true)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = database.ConnectRedis(ctx, cfg.RedisURL); err != nil {
			zap.L().Warn("Redis unavailable, caching and async imports disabled", zap.Error(err))
			rdb = nil
		}
	}

	staging, err := importer.NewStaging(cfg.UploadDir)
	if err != nil {
		zap.L().Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	// --- 2. Dependency Injection ---

	var cacheMetrics services.MetricsRecorder
	if metrics != nil {
		cacheMetrics = metrics
	}
	cache := controllers.NewCacheManager(rdb, cacheMetrics)

	categoryService := services.NewCategoryService(st.categories)
	productService := services.NewProductService(st.products)

	importOpts := []services.ImportOption{services.WithCacheInvalidator(cache)}
	if metrics != nil {
		importOpts = append(importOpts, services.WithMetrics(metrics))
	}
	if cfg.ArchiveBucket != "" {
		importOpts = append(importOpts, services.WithArchiver(awspkg.NewS3Archiver(awsCfg, cfg.ArchiveBucket, cfg.ArchivePrefix)))
	}
	importService := services.NewImportService(staging, map[string]services.ImportEntity{
		services.EntityCategory: {Schema: services.CategorySchema, Target: categoryService.ImportTarget(), Plural: "categories"},
		services.EntityProduct:  {Schema: services.ProductSchema, Target: productService.ImportTarget(), Plural: "products"},
	}, importOpts...)

	var queue *services.ImportQueue
	if rdb != nil {
		queue = services.NewImportQueue(rdb)
		services.StartImportWorker(ctx, queue, importService)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(st.users, tokens, newMailer(cfg, awsCfg), cfg.PublicBaseURL)

	validator := controllers.NewRequestValidator(cfg.MaxUploadSize)
	handlers := routes.Handlers{
		Category:   controllers.NewCategoryController(categoryService, cache, validator),
		Product:    controllers.NewProductController(productService, cache, validator),
		Import:     controllers.NewImportHandler(importService, queue, validator),
		Auth:       controllers.NewAuthController(authService, services.NewUserService(st.users), validator),
		Subscriber: controllers.NewSubscriberController(services.NewSubscriberService(st.subscribers), validator),
	}

	limiter := middleware.NewRateLimiter(rate.Limit(5), 10, 10*time.Minute)
	go limiter.Cleanup(ctx.Done())
	guards := routes.Guards{Limiter: limiter.Middleware()}
	if cfg.RequireAdmin {
		guards.Admin = middleware.RequireRole(tokens, models.RoleAdmin)
	}

	// --- 3. HTTP Server & Middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, handlers, guards)

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Storefront service starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down storefront service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := st.close(shutdownCtx); err != nil {
		zap.L().Error("Failed to close database", zap.Error(err))
	}

	zap.L().Info("Storefront service stopped gracefully")
}

// openStores connects the repositories. DATABASE_URL=memory:// keeps
// everything in process, for local runs.
func openStores(ctx context.Context, cfg *Config) (*stores, error) {
	if strings.HasPrefix(cfg.DatabaseURL, "memory://") {
		zap.L().Warn("Using in-memory store; data is lost on restart")
		return &stores{
			categories:  repository.NewMemoryCategoryRepository(true),
			products:    repository.NewMemoryProductRepository(true),
			users:       repository.NewMemoryUserRepository(),
			subscribers: repository.NewMemorySubscriberRepository(),
			close:       func(context.Context) error { return nil },
		}, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureIndexes(ctx, db.DB); err != nil {
		zap.L().Warn("Failed to ensure unique indexes; duplicates are only caught by lookups", zap.Error(err))
	}
	return &stores{
		categories:  repository.NewCategoryRepository(db.DB),
		products:    repository.NewProductRepository(db.DB),
		users:       repository.NewUserRepository(db.DB),
		subscribers: repository.NewSubscriberRepository(db.DB),
		close:       db.Close,
	}, nil
}

func newMailer(cfg *Config, awsCfg sdkaws.Config) services.Mailer {
	switch cfg.MailDriver {
	case "sns":
		return services.NewSNSMailer(awspkg.NewSNSClient(awsCfg), cfg.VerificationTopicARN)
	case "log":
		return services.LogMailer{}
	default:
		if cfg.SMTPUser == "" {
			zap.L().Warn("SMTP_USER not set, verification emails are only logged")
			return services.LogMailer{}
		}
		return services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}
}
