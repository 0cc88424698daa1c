package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
	"github.com/yashrajoria/E-Commerce-storefront/services/common/auth"
	"github.com/yashrajoria/E-Commerce-storefront/services/common/logger"
	commonmw "github.com/yashrajoria/E-Commerce-storefront/services/common/middleware"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/config"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/controllers"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/middleware"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/routes"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/storage"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()
	log := logger.Named(serviceName)

	ctx := context.Background()

	if cfg.UseAWSSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatal("Failed to load AWS config", zap.Error(err))
		}
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			log.Fatal("Failed to load secrets", zap.Error(err))
		}
		log.Info("Secrets loaded from Secrets Manager")
	}
	auth.SetSecret(cfg.JWTSecret)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// ── CloudWatch Metrics ──
	var metrics aws_pkg.MetricsRecorder
	if cfg.CloudWatchEnabled {
		mc, err := aws_pkg.NewMetricsClient(ctx, cfg.CloudWatchNamespace, serviceName)
		if err != nil {
			log.Warn("CloudWatch Metrics init failed", zap.Error(err))
		} else {
			metrics = mc
			log.Info("CloudWatch Metrics enabled")
		}
	}

	// Redis keeps per-user local state across restarts; memory otherwise
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis")
	}

	breakers := clients.NewBreakerSet(clients.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerOpenTimeout,
	}, log.Named("breaker"))
	endpoints := services.Endpoints{
		Cart:     cfg.CartServiceURL,
		Address:  cfg.AddressServiceURL,
		Payment:  cfg.PaymentServiceURL,
		Auth:     cfg.AuthServiceURL,
		Timeout:  cfg.RequestTimeout,
		Breakers: breakers,
	}
	memory := storage.NewMemorySet()
	build := func(userID string) *services.Workspace {
		var kv storage.KV = memory.For(userID)
		if redisClient != nil {
			kv = storage.NewRedisKV(redisClient, userID, cfg.StateTTL)
		}
		return services.NewWorkspace(userID, endpoints, kv, metrics, log)
	}
	authClient := clients.NewAuthClient(clients.NewGatewayClient(cfg.AuthServiceURL, cfg.RequestTimeout, nil).WithBreaker(breakers.For(cfg.AuthServiceURL)))
	registry := services.NewRegistry(authClient, build, log.Named("registry"))
	defer registry.Close()

	controller := controllers.NewStorefrontController(registry, log.Named("http"))
	catalogGateway := clients.NewGatewayClient(cfg.CatalogServiceURL, cfg.RequestTimeout, nil).WithBreaker(breakers.For(cfg.CatalogServiceURL))
	catalog := services.NewCatalog(clients.NewCatalogClient(catalogGateway), log.Named("catalog"))
	catalogController := controllers.NewCatalogController(catalog, log.Named("http"))

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(commonmw.RateLimitMiddleware(cfg.RateLimitPerMinute))
	r.Use(middleware.HTTPMetrics(metrics, serviceName, log))

	routes.RegisterRoutes(r, controller, catalogController, registry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(r, serviceName),
	}

	go func() {
		log.Info("Storefront listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	log.Info("Storefront stopped")
}
