package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/app"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fs := config.Flags("relay")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		logger.S().Fatalw("config_load_failed", "error", err)
	}
	log := logger.Init(cfg.Log.ToLoggerOptions())
	defer log.Sync()

	// A memory outbox is only ever drained by the storefront that wrote it.
	if !cfg.Outbox.Shared() {
		log.Fatal("relay_needs_shared_outbox",
			zap.String("outbox_driver", cfg.Outbox.Driver),
			zap.String("hint", "set outbox.driver to postgres or dynamodb"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, reg, log)
	if err != nil {
		log.Fatal("relay_init_failed", zap.Error(err))
	}
	defer a.Close()

	if err := a.AuthorizeRelay(ctx); err != nil {
		log.Fatal("relay_auth_failed", zap.Error(err))
	}

	log.Info("relay_starting",
		zap.String("outbox_driver", cfg.Outbox.Driver),
		zap.Duration("interval", cfg.Relay.Interval),
		zap.Int("max_attempts", cfg.Relay.MaxAttempts),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Relay.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_server_failed", zap.Error(err))
		}
	}()

	if err := a.Relay().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("relay_stopped", zap.Error(err))
	}

	log.Info("relay_shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
