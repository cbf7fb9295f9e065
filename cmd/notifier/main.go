package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/email"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/notification"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fs := config.Flags("notifier")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		logger.S().Fatalw("config_load_failed", "error", err)
	}
	log := logger.Init(cfg.Log.ToLoggerOptions())
	defer log.Sync()

	log.Info("notifier_starting",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.String("smtp", cfg.Email.Host+":"+cfg.Email.Port),
	)

	mailer := email.NewService(cfg.Email.Host, cfg.Email.Port, cfg.Email.From)
	handler := notification.NewHandler(mailer, log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	if err := consumer.Consume(ctx, handler.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer_stopped", zap.Error(err))
	}
	log.Info("notifier_shutting_down")
}
