package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightfinder/internal/config"
	"github.com/dharmasatrya/flightfinder/internal/coordinator"
	"github.com/dharmasatrya/flightfinder/internal/handler"
	"github.com/dharmasatrya/flightfinder/internal/logger"
	"github.com/dharmasatrya/flightfinder/internal/providers"
	"github.com/dharmasatrya/flightfinder/internal/ratelimit"
	"github.com/dharmasatrya/flightfinder/internal/render"
	"github.com/dharmasatrya/flightfinder/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	provider, err := providers.NewSerpAPIProvider(providers.SerpAPIConfig{
		BaseURL:  cfg.SerpAPIBaseURL,
		APIKey:   cfg.SerpAPIKey,
		Engine:   cfg.SerpAPIEngine,
		Currency: cfg.Currency,
		Timeout:  cfg.ProviderTimeout,
	})
	if err != nil {
		zl.Fatal("Failed to initialize flight provider", zap.Error(err))
	}

	store, err := initializeStore(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer store.Close()

	renderer, err := render.New(provider.Currency(), cfg.DealsBaseURL)
	if err != nil {
		zl.Fatal("Failed to parse templates", zap.Error(err))
	}

	coord := coordinator.New(provider, store, zl)
	sessions := handler.NewSessions(cfg.SessionTTL, cfg.IsProduction())
	searchHandler := handler.NewSearchHandler(coord, renderer, sessions, zl)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				zl.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zl.Info("request", fields...)
			return nil
		},
	}))

	var searchMiddleware []echo.MiddlewareFunc
	if cfg.RateLimitRPS > 0 {
		rlCfg := ratelimit.DefaultConfig()
		rlCfg.RequestsPerSecond = cfg.RateLimitRPS
		if cfg.RateLimitBurst > 0 {
			rlCfg.BurstSize = cfg.RateLimitBurst
		}
		limiter := ratelimit.NewClientLimiter(rlCfg)
		searchMiddleware = append(searchMiddleware, limiter.Middleware())
		go pruneLimiter(limiter, zl)
		zl.Info("Per-client search limit enabled", zap.Float64("rps", rlCfg.RequestsPerSecond), zap.Int("burst", rlCfg.BurstSize))
	}

	searchHandler.Register(e, searchMiddleware...)

	go func() {
		zl.Info("Starting flight finder server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
	zl.Info("Server stopped")
}

func initializeStore(cfg *config.Config, zl *zap.Logger) (session.Store, error) {
	switch cfg.SessionBackend {
	case "redis":
		store, err := session.NewRedisStore(session.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, err
		}
		zl.Info("Redis session store enabled",
			zap.String("addr", cfg.RedisHost+":"+cfg.RedisPort),
			zap.Duration("ttl", cfg.SessionTTL))
		return store, nil
	case "memory", "":
		zl.Info("In-memory session store enabled", zap.Duration("ttl", cfg.SessionTTL))
		return session.NewMemoryStore(cfg.SessionTTL), nil
	default:
		return nil, errors.New("unknown SESSION_BACKEND " + cfg.SessionBackend)
	}
}

func pruneLimiter(limiter *ratelimit.ClientLimiter, zl *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if n := limiter.Prune(15 * time.Minute); n > 0 {
			zl.Debug("Pruned idle rate limiters", zap.Int("count", n))
		}
	}
}
