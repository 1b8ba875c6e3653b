package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Cheertaboi/smaphregi/internal/api"
	"github.com/Cheertaboi/smaphregi/internal/cache"
	"github.com/Cheertaboi/smaphregi/internal/config"
	"github.com/Cheertaboi/smaphregi/internal/metrics"
	"github.com/Cheertaboi/smaphregi/internal/repository"
	"github.com/Cheertaboi/smaphregi/internal/service"
	"github.com/Cheertaboi/smaphregi/internal/session"
	"github.com/Cheertaboi/smaphregi/internal/transport"
	"github.com/Cheertaboi/smaphregi/pkg/db"
)

const sweepInterval = 5 * time.Minute

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, sweep, closer, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("session store", zap.String("store", cfg.SessionStore), zap.Error(err))
	}
	defer closer.Close()
	if sweep != nil {
		go runSweeper(ctx, logger, sweep)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := service.NewCheckoutService(store, newTransport(cfg), logger, m, service.Options{
		LookupWorkers: cfg.LookupWorkers,
	})

	deps := api.Deps{
		Checkout:  svc,
		Logger:    logger,
		Metrics:   m,
		RateLimit: cfg.RateLimit,
	}
	if cfg.MetricsEnabled {
		deps.Gatherer = reg
	}
	handler, err := api.NewRouter(deps)
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	logger.Info("starting smaphregi",
		zap.String("addr", srv.Addr),
		zap.String("transport", cfg.Transport),
		zap.String("session_store", cfg.SessionStore),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}

	<-idleConnsClosed
	logger.Info("server stopped")
}

func newTransport(cfg config.Config) transport.Transport {
	if cfg.Transport == config.TransportGateway {
		return transport.NewGatewayClient(transport.GatewayConfig{
			URL:           cfg.Gateway.URL,
			Stage:         cfg.Gateway.Stage,
			APIName:       cfg.Gateway.APIName,
			APIKey:        cfg.Gateway.APIKey,
			SigningSecret: []byte(cfg.Gateway.SigningSecret),
			TokenTTL:      cfg.Gateway.TokenTTL,
			Timeout:       cfg.BackendTimeout,
		})
	}
	return transport.NewHTTPClient(cfg.BackendURL, cfg.BackendTimeout)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newSessionStore opens the configured store. sweep, when non-nil, drops
// expired sessions and reports how many went.
func newSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (session.Store, func(context.Context) (int64, error), io.Closer, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("redis connected", zap.String("host", cfg.Redis.Host))
		return cache.NewRedisSessionCache(rdb, cfg.SessionTTL), nil, rdb, nil

	case config.StorePostgres:
		pgCfg, err := db.LoadPostgresConfig()
		if err != nil {
			return nil, nil, nil, err
		}
		conn, err := db.NewPostgresConnection(ctx, pgCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewSessionRepo(conn, cfg.SessionTTL)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
		logger.Info("postgres connected", zap.String("host", pgCfg.Host))
		return repo, repo.PurgeExpired, conn, nil

	default:
		c := cache.NewSessionCache(cfg.SessionTTL)
		sweep := func(context.Context) (int64, error) { return int64(c.Sweep()), nil }
		return c, sweep, nopCloser{}, nil
	}
}

func runSweeper(ctx context.Context, logger *zap.Logger, sweep func(context.Context) (int64, error)) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweep(ctx)
			if err != nil {
				logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
