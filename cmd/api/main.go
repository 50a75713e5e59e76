package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nutriscan-activation/api/routes"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/internal/cron"
	"github.com/angelmondragon/nutriscan-activation/internal/notify"
	"github.com/angelmondragon/nutriscan-activation/internal/store/memory"
	"github.com/angelmondragon/nutriscan-activation/internal/store/sqlstore"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/angelmondragon/nutriscan-activation/pkg/db"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
	"github.com/angelmondragon/nutriscan-activation/pkg/redis"
)

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
		Version:     cfg.App.Version,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	activationMetrics := metrics.NewActivationMetrics(reg)

	orders, codes, closer, err := openStores(ctx, cfg, logg)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	deps := notify.Deps{Logger: logg, Metrics: activationMetrics}
	if cfg.Notify.Enabled(config.ChannelRedis) {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient)
		deps.Publisher = redisClient
	}
	notifier, err := notify.FromConfig(cfg, deps)
	if err != nil {
		return err
	}

	generator, err := activation.NewCodeGenerator()
	if err != nil {
		return err
	}
	svc, err := activation.NewService(activation.ServiceParams{
		Orders:    orders,
		Codes:     codes,
		Generator: generator,
		Notifier:  notifier,
		Metrics:   activationMetrics,
		Logger:    logg,
		Settings:  activation.SettingsFromConfig(cfg.Activation),
	})
	if err != nil {
		return err
	}

	statsJob, err := cron.NewActivationStatsJob(svc, activationMetrics)
	if err != nil {
		return err
	}
	jobs, err := cron.NewRegistry(statsJob)
	if err != nil {
		return err
	}
	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Stats.Interval,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cron service stopped", err)
		}
	}()

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(cfg, logg, svc, metrics.NewHTTPMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"store":    cfg.Store.Driver,
		"channels": notifier.Channels(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, logg *logger.Logger) (activation.OrderStore, activation.CodeStore, io.Closer, error) {
	if cfg.Store.Driver != config.StoreDriverSQLite {
		stores := memory.New()
		return stores.Orders, stores.Codes, nil, nil
	}

	client, err := db.New(ctx, cfg.Store, logg)
	if err != nil {
		return nil, nil, nil, err
	}
	stores, err := sqlstore.New(ctx, client)
	if err != nil {
		return nil, nil, nil, multierr.Append(err, client.Close())
	}
	return stores.Orders, stores.Codes, client, nil
}
