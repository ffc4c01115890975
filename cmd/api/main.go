package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/studio-booking/internal/api/http"
	"github.com/spec-kit/studio-booking/internal/api/http/handlers"
	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/observability"
	"github.com/spec-kit/studio-booking/internal/persistence"
	"github.com/spec-kit/studio-booking/internal/ratelimit"
	"github.com/spec-kit/studio-booking/internal/repository"
	"github.com/spec-kit/studio-booking/internal/repository/memory"
	"github.com/spec-kit/studio-booking/internal/service"
	"github.com/spec-kit/studio-booking/internal/worker"
)

type repositories struct {
	users         repository.UserRepository
	bookings      repository.BookingRepository
	reviews       repository.ReviewRepository
	notifications repository.NotificationRepository
	catalog       repository.CatalogRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	repos := repositories{}
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos.users = repository.NewUserRepository(pg.Pool)
		repos.bookings = repository.NewBookingRepository(pg.Pool)
		repos.reviews = repository.NewReviewRepository(pg.Pool)
		repos.notifications = repository.NewNotificationRepository(pg.Pool)
		repos.catalog = repository.NewCatalogRepository(pg.Pool)
	} else {
		if cfg.App.Env == "production" {
			logger.Fatal("POSTGRES_DSN is required in production")
		}
		store := memory.NewStore()
		repos.users = store.Users()
		repos.bookings = store.Bookings()
		repos.reviews = store.Reviews()
		repos.notifications = store.Notifications()
		repos.catalog = store.Catalog()
	}

	var redis *persistence.Redis
	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
	}

	metrics := observability.NewMetrics()
	allowlist := auth.NewAdminAllowlist(cfg.Auth.AdminEmails)
	if len(allowlist.Recipients()) == 0 {
		logger.Warn("ADMIN_EMAILS is empty, admin endpoints are unreachable")
	}

	mail, err := mailer.New(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	tokens := auth.NewTokenManager(auth.TokenSettings{
		AccessSecret:   cfg.Auth.JWTSecret,
		RefreshSecret:  cfg.Auth.RefreshSecret,
		AccessTTL:      time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute,
		AdminAccessTTL: time.Duration(cfg.Auth.AdminAccessTokenTTLMinutes) * time.Minute,
		RefreshTTL:     time.Duration(cfg.Auth.RefreshTokenTTLHours) * time.Hour,
	})

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(repos.notifications, dispatcher, allowlist, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	authService, err := service.NewAuthService(service.AuthSettings{
		BcryptCost:        cfg.Auth.BcryptCost,
		PasswordMinLength: cfg.Auth.PasswordMinLength,
		ResetTTL:          time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		FrontendURL:       cfg.App.FrontendURL,
	}, service.AuthDependencies{
		Users:      repos.users,
		Tokens:     tokens,
		OTP:        auth.NewOTPEngine(time.Duration(cfg.Auth.OTPTTLMinutes)*time.Minute, cfg.Auth.OTPMaxAttempts),
		Lockout:    auth.NewLockoutGuard(cfg.Auth.LockoutThreshold, time.Duration(cfg.Auth.LockoutMinutes)*time.Minute),
		Allowlist:  allowlist,
		Mailer:     mail,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	userService := service.NewUserService(repos.users, allowlist, logger)
	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: repos.bookings,
		UserRepo:    repos.users,
		Catalog:     repos.catalog,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	reviewService := service.NewReviewService(repos.reviews, repos.bookings, logger)
	catalogService := service.NewCatalogService(repos.catalog, logger)

	var rateLimit fiber.Handler
	if cfg.RateLimit.Enabled {
		rateLimit = ratelimit.Middleware(buildLimiter(ctx, cfg.RateLimit, redis, logger), logger, metrics)
	}

	var wg sync.WaitGroup
	notificationWorker := worker.NewNotificationWorker(repos.notifications, mail, logger, metrics, cfg.Notification)
	wg.Add(1)
	go func() {
		defer wg.Done()
		notificationWorker.Run(ctx)
	}()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Admin:          handlers.NewAdminHandler(authService, userService),
		Bookings:       handlers.NewBookingsHandler(bookingService),
		Reviews:        handlers.NewReviewsHandler(reviewService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.users, allowlist),
		Metrics:        metrics,
		RateLimit:      rateLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	wg.Wait()
}

func buildLimiter(ctx context.Context, cfg config.RateLimitConfig, redis *persistence.Redis, logger *zap.Logger) ratelimit.Limiter {
	if redis != nil {
		logger.Info("rate limiter backed by redis")
		return ratelimit.NewRedisLimiter(redis.Client, redis.Key("ratelimit"), cfg.MaxRequests, cfg.Window())
	}
	limiter := ratelimit.NewMemoryLimiter(cfg.Window(), cfg.MaxRequests)
	limiter.Start(ctx, cfg.SweepInterval())
	return limiter
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
