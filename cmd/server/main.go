package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"marketplace/docs"
	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/handler"
	"marketplace/internal/payment"
	"marketplace/internal/repository"
	"marketplace/internal/router"
	"marketplace/internal/service"
	"marketplace/internal/storage"
	"marketplace/internal/view"
)

// @title Marketplace
// @version 1.0
// @description Server-rendered marketplace: accounts, listings, comments and Stripe checkout.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg.Log)

	if cfg.Swagger.Host != "" {
		docs.SwaggerInfo.Host = cfg.Swagger.Host
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLevel := gormlogger.Warn
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = gormlogger.Info
	}
	gormDB, err := db.NewMySQL(cfg.MySQL.DSN, gormLevel)
	if err != nil {
		logger.Fatalf("database init: %v", err)
	}
	if cfg.DB.Reset {
		logger.Warn("db.reset set, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.DB.Reset); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.WithError(err).Warn("redis unavailable, continuing without cache")
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	listingRepo := repository.NewListingRepository(gormDB)
	purchaseRepo := repository.NewPurchaseRepository(gormDB)
	purchaseLogRepo := repository.NewPurchaseLogRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	creds := auth.NewCredentials(jwtService, tokenStore)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("stripe secret key is empty, purchases will fail")
	}
	processor := payment.NewStripeProcessor(cfg.Stripe.SecretKey, nil)

	// Services
	authService := service.NewAuthService(userRepo, creds, logger)
	listingService := service.NewListingService(listingRepo, userRepo, storageSvc, cacheClient, cfg.Upload.MaxBytes, logger)
	purchaseService := service.NewPurchaseService(
		listingRepo,
		userRepo,
		purchaseRepo,
		purchaseLogRepo,
		processor,
		cacheClient,
		service.PurchaseConfig{Currency: cfg.Stripe.Currency, Timeout: cfg.Timeouts.Payment},
		logger,
	)
	defer purchaseService.Close()

	// Handlers
	opts := handler.Options{
		TokenTTL:       jwtService.TTL(),
		SecureCookies:  cfg.Auth.SecureCookies,
		StripeKey:      cfg.Stripe.PublishableKey,
		Currency:       cfg.Stripe.Currency,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}
	authHandler := handler.NewAuthHandler(authService, opts)
	listingHandler := handler.NewListingHandler(listingService, purchaseService, opts)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, listingService, opts)

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Fatalf("parse templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	router.Register(e, cfg, logger, creds, authHandler, listingHandler, purchaseHandler)

	addr := ":" + cfg.Server.Port
	go func() {
		logger.Infof("listening on %s, docs at /swagger/index.html", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

func configureLogger(logger *logrus.Logger, cfg config.LogConfig) {
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func buildStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Driver != "s3" {
		logger.Infof("storing photos in %s", cfg.Storage.LocalDir)
		local, err := storage.NewLocalService(cfg.Storage.LocalDir, cfg.Storage.PublicPrefix)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	remote, err := storage.NewS3Service(client, storage.S3Options{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	return remote, nil
}
