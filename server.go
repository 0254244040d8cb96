package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-inventory/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-inventory/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-inventory/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/config"
	dompayment "github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/memory"
	obsinfra "github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/outbox"
	redisinfra "github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-inventory/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-inventory/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := zaplogger.Build(zaplogger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)
	logger := zaplogger.Wrap(zl)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Setup(ctx, oteltrace.SetupConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms, gauges := prometrics.Instruments(prometrics.New(reg, "", ""))
	tel := obsinfra.New(oteltrace.New(cfg.ServiceName), logger, obsinfra.Instruments{
		Counters:   counters,
		Histograms: histograms,
		Gauges:     gauges,
	})

	guard, closeGuard, err := newReplayGuard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGuard()

	store := memory.NewStore()
	bus := outbox.NewBus(logger)

	catalogService := appcatalog.NewService(store, bus, tel)
	ledger := apporder.NewLedger(store, bus, tel)
	coordinator := appinventory.NewCoordinator(store, bus, tel)
	verifier := apppayment.NewVerifier([]byte(cfg.WebhookSecret), guard, store, bus, tel)

	subscriber := workerpresentation.NewSubscriber(bus, logger)
	appinventory.NewWorker(subscriber, cfg.LowStockThreshold, tel).Start()
	apporder.NewWorker(subscriber, tel).Start()
	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Deps{
		Catalog:     catalogService,
		Orders:      ledger,
		Coordinator: coordinator,
		Webhook:     verifier,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, cfg.ServiceName, cfg.Env, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("replay_store", cfg.ReplayStore),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http_server_error", observability.F("error", err))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		logger.Info("http_server_stopped")
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		logger.Warn("event_bus_drain_incomplete", observability.F("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer_shutdown_error", observability.F("error", err))
	}
	return runErr
}

// newReplayGuard selects the webhook replay store. Redis lets several
// replicas share one dedup window.
func newReplayGuard(ctx context.Context, cfg config.Config) (dompayment.ReplayGuard, func(), error) {
	if cfg.ReplayStore != config.ReplayStoreRedis {
		return memory.NewReplayGuard(cfg.ReplayTTL, cfg.ReplayMaxEntries), func() {}, nil
	}

	client, err := redisinfra.NewClient(ctx, redisinfra.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return redisinfra.NewReplayGuard(client, cfg.ReplayTTL), func() { _ = client.Close() }, nil
}
