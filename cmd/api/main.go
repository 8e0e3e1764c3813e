package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookworld/internal/auth"
	"bookworld/internal/catalog"
	"bookworld/internal/config"
	"bookworld/internal/httpx"
	"bookworld/internal/logger"
	"bookworld/internal/platform/openlibrary"
	"bookworld/internal/readinglist"
)

const dbTimeout = 3 * time.Second

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Environment: cfg.Environment, Level: cfg.LogLevel})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Server, log *slog.Logger) error {
	dbPool, err := openDB(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	resultCache, closeCache, err := newResultCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	provider := openlibrary.NewClient(openlibrary.Options{
		BaseURL:    cfg.OpenLibrary.BaseURL,
		UserAgent:  cfg.OpenLibrary.UserAgent,
		RPS:        cfg.OpenLibrary.RPS,
		MaxRetries: cfg.OpenLibrary.MaxRetries,
		Timeout:    cfg.OpenLibrary.Timeout,
		Logger:     log,
	})
	catalogService := catalog.NewService(provider, resultCache, log)
	sampler := catalog.NewSampler(catalogService, resultCache, log)

	authService := auth.NewService(auth.NewPostgresRepo(dbPool, dbTimeout), cfg.JWTSecret, cfg.TokenTTL)
	listService := readinglist.NewService(readinglist.NewPostgresRepo(dbPool, dbTimeout))

	router := newRouter(cfg, routerDeps{
		logger:      log,
		rateLimiter: httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy),
		ready:       dbPool.Ping,
		catalog:     catalog.NewHTTPHandler(catalogService, sampler),
		auth:        auth.NewHTTPHandler(authService, log),
		lists:       readinglist.NewHTTPHandler(listService, log),
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newResultCache(ctx context.Context, cfg *config.Server, log *slog.Logger) (catalog.ResultCache, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("catalog cache: in-memory")
		return catalog.NewMemoryCache(), func() {}, nil
	}
	client, err := catalog.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("catalog cache: redis", "ttl", cfg.CacheTTL)
	return catalog.NewRedisCache(client, cfg.CacheTTL), func() { _ = client.Close() }, nil
}

func openDB(ctx context.Context, dsn string, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error("cannot ping database", "dsn", redactDSN(dsn), "error", err)
		return nil, err
	}
	log.Info("database connection OK")
	return pool, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
