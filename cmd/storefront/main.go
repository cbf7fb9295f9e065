package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/app"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/logger"
)

const usage = `usage: storefront [flags] <command> [args...]
       storefront [flags] shell

Run "storefront help" for the command list.
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, argv []string) error {
	fs := config.Flags("storefront")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log.ToLoggerOptions())
	defer log.Sync()

	a, err := app.New(ctx, cfg, prometheus.DefaultRegisterer, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// A backend outage must not stop browsing; the token is kept for the next run.
	if err := a.Session.Bootstrap(ctx); err != nil {
		log.Warn("session_bootstrap_failed", zap.Error(err))
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	if !cfg.Outbox.Shared() {
		stop := startLocalRelay(ctx, a, log)
		defer stop()
	}

	sh := a.Shell(os.Stdout)
	if args[0] == "shell" {
		log.Info("shell_started", zap.String("api", cfg.API.BaseURL))
		return sh.Run(ctx, os.Stdin)
	}
	return sh.Exec(ctx, args)
}

// startLocalRelay drains a memory outbox from inside this process, since no
// other process can see it. The returned stop waits for the loop and makes a
// last pass so adjustments queued by the final command are not lost.
func startLocalRelay(ctx context.Context, a *app.App, log *zap.Logger) (stop func()) {
	if err := a.AuthorizeRelay(ctx); err != nil {
		log.Warn("local_relay_disabled", zap.Error(err))
		return func() {}
	}
	r := a.Relay()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(runCtx)
	}()
	return func() {
		cancel()
		<-done
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer drainCancel()
		res, err := r.ProcessOnce(drainCtx)
		if err != nil {
			log.Warn("local_relay_drain_failed", zap.Error(err))
			return
		}
		if res.Retried > 0 {
			log.Warn("stock_adjustments_unapplied", zap.Int("pending", res.Retried))
		}
	}
}
