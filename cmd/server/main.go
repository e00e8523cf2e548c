package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/booking"
	"github.com/dharmasatrya/trotair/internal/cache"
	"github.com/dharmasatrya/trotair/internal/config"
	"github.com/dharmasatrya/trotair/internal/handler"
	"github.com/dharmasatrya/trotair/internal/payment"
	"github.com/dharmasatrya/trotair/internal/providers"
	"github.com/dharmasatrya/trotair/internal/ratelimit"
	"github.com/dharmasatrya/trotair/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Server)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	}).Info("Starting trotair booking server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowedOrigins,
	}))
	e.Use(requestLogger(logger))

	rateLimiter := ratelimit.NewUpstreamLimiter(ratelimit.DefaultConfig(), map[string]ratelimit.RateLimitConfig{
		ratelimit.UpstreamFlights:  {RequestsPerSecond: cfg.Flights.RPS, BurstSize: cfg.Flights.Burst},
		ratelimit.UpstreamCheckout: {RequestsPerSecond: cfg.Checkout.RPS, BurstSize: cfg.Checkout.Burst},
	})

	duffel := providers.NewDuffelProvider(providers.DuffelConfig{
		BaseURL:     cfg.Flights.APIURL,
		AccessToken: cfg.Flights.AccessToken,
		Version:     cfg.Flights.Version,
		Timeout:     cfg.Flights.Timeout,
	}, rateLimiter, logger)

	checkout := providers.NewHostedCheckoutProvider(providers.CheckoutConfig{
		BaseURL:   cfg.Checkout.APIURL,
		SecretKey: cfg.Checkout.SecretKey,
		Source:    cfg.Checkout.Source,
		Timeout:   cfg.Checkout.Timeout,
	}, rateLimiter, logger)

	offerCache := initCache(cfg.Cache, logger)
	defer offerCache.Close()
	searcher := cache.NewCachedSearcher(duffel, offerCache, logger)

	journal, closeJournal := initJournal(ctx, cfg.Database, logger)
	defer closeJournal()

	// Booking sessions always ask the upstream: cached offer ids may already
	// have expired by the time the user checks out.
	store := booking.NewStore(booking.Dependencies{
		Searcher:     duffel,
		Checkout:     checkout,
		ReturnOrigin: cfg.Server.PublicOrigin,
		Logger:       logger,
	}, cfg.Sessions.IdleTTL)
	go store.RunSweeper(ctx, cfg.Sessions.SweepInterval)

	poller := payment.NewPoller(
		payment.NewRecordingChecker(checkout, journal, logger),
		payment.Config{
			MaxAttempts: cfg.Poller.MaxAttempts,
			Interval:    cfg.Poller.Interval,
		},
		logger,
	)

	handler.RegisterRoutes(e,
		handler.NewSessionHandler(store, journal, logger),
		handler.NewSearchHandler(searcher, duffel, journal, logger),
		handler.NewPaymentHandler(poller, checkout, journal, logger),
	)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}

func newLogger(cfg config.ServerConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(level)
	return logger
}

func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("Request failed")
				return nil
			}
			entry.Info("Request handled")
			return nil
		},
	})
}

// initCache falls back to no caching when Redis is unreachable; search still
// works, only slower.
func initCache(cfg config.CacheConfig, logger *logrus.Logger) cache.Cache {
	if !cfg.Enabled {
		logger.Info("Cache disabled")
		return cache.NewNoOpCache()
	}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without cache")
		return cache.NewNoOpCache()
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.RedisHost + ":" + cfg.RedisPort,
		"ttl":  cfg.TTL.String(),
	}).Info("Redis cache enabled")
	return redisCache
}

func initJournal(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) (repository.Journal, func()) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set, bookings will not be persisted")
		return repository.NoopJournal{}, func() {}
	}

	db, err := repository.NewConnection(cfg)
	if err != nil {
		logger.WithError(err).Warn("Database unavailable, bookings will not be persisted")
		return repository.NoopJournal{}, func() {}
	}

	journal := repository.NewPostgresJournal(db, logger)
	if err := journal.Migrate(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	logger.Info("Database connected")
	return journal, func() { _ = db.Close() }
}
