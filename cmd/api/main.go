package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/bikeshop-bff/api/routes"
	"github.com/angelmondragon/bikeshop-bff/internal/cart"
	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	"github.com/angelmondragon/bikeshop-bff/pkg/env"
	"github.com/angelmondragon/bikeshop-bff/pkg/kv"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
	"github.com/angelmondragon/bikeshop-bff/pkg/metrics"
	"github.com/angelmondragon/bikeshop-bff/pkg/migrate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := kv.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logg.Error(context.Background(), "error closing cart storage", err)
		}
	}()

	if backend.DB != nil {
		if err := migrate.MaybeRun(ctx, cfg, logg, backend.DB); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fetcher, err := catalog.NewClient(catalog.ClientParams{
		Config:  cfg.Catalog,
		Logger:  logg,
		Metrics: metrics.NewCatalogMetrics(registry),
	})
	if err != nil {
		return err
	}

	shared := cfg.Storage.Shared()
	store, err := cart.NewStore(cart.StoreParams{
		Storage:     backend,
		Key:         cfg.Cart.Key,
		ReadThrough: shared,
		Logger:      logg,
		Metrics:     metrics.NewCartMetrics(registry),
	})
	if err != nil {
		return err
	}
	store.Load(ctx)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"instance":       env.Instance(),
		"storage_driver": cfg.Storage.Driver,
		"cart_key":       store.Key(),
	})

	// request contexts end with the process so open event streams let Shutdown finish
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, backend, store, fetcher, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if shared && cfg.Cart.WatchInterval > 0 {
		g.Go(func() error {
			logg.Info(logg.WithField(ctx, "interval", cfg.Cart.WatchInterval.String()), "cart watcher started")
			return cart.NewWatcher(store, cfg.Cart.WatchInterval).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
