package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/config"
	"github.com/iliyamo/household-ledger/internal/database"
	"github.com/iliyamo/household-ledger/internal/handler"
	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/middleware"
	"github.com/iliyamo/household-ledger/internal/queue"
	"github.com/iliyamo/household-ledger/internal/repository"
	"github.com/iliyamo/household-ledger/internal/router"
	"github.com/iliyamo/household-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.WithModule("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		lg.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = auth.JWKSURL(cfg.Auth0Domain)
	}
	keys := auth.NewJWKSResolver(auth.JWKSOptions{
		URL:        jwksURL,
		CacheTTL:   cfg.JWKSCacheTTL,
		MinRefresh: cfg.JWKSMinRefresh,
		HTTPClient: &http.Client{Timeout: cfg.JWKSHTTPTimeout},
		Redis:      rdb,
	})
	verifier := auth.NewVerifier(auth.VerifierConfig{
		Domain:     cfg.Auth0Domain,
		Audience:   cfg.Auth0Audience,
		Algorithms: cfg.Auth0Algorithms,
	}, keys)

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitMQURL)
	}
	if cfg.ActivityConsumerEnabled {
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitMQURL, cfg.ActivityLogPath); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	households := repository.NewHouseholdRepo(db)
	invites := repository.NewInviteRepo(db)
	transactions := repository.NewTransactionRepo(db)

	guard := service.NewMembershipGuard(households)
	identitySvc := service.NewIdentityService(users)
	householdSvc := service.NewHouseholdService(households, guard, events)
	inviteSvc := service.NewInviteService(invites, households, guard, events)
	transactionSvc := service.NewTransactionService(transactions, guard, events)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORS.Origins,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		AllowMethods:     cfg.CORS.Methods,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		MaxAge:           cfg.CORS.MaxAge,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))
	e.Use(middleware.Latency())

	guards := router.Guards{
		Verifier: verifier,
		Resolver: identitySvc,
		Limit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(identitySvc), guards)
	router.RegisterHouseholds(e, handler.NewHouseholdHandler(householdSvc, inviteSvc), guards)
	router.RegisterTransactions(e, handler.NewTransactionHandler(transactionSvc), guards,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}
