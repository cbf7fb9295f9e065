package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/domain/inventory"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
)

var (
	errUnknownEvent = errors.New("unknown outbox event type")
	errUndecodable  = errors.New("undecodable outbox payload")
)

// Reconciler applies a deferred stock decrement against current stock.
type Reconciler interface {
	Reconcile(ctx context.Context, productID int64, qty int) (int, error)
}

type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Result counts what one pass did.
type Result struct {
	Processed int
	Retried   int
	Dead      int
}

// Relay drains the outbox, replaying stock adjustments that failed during checkout.
type Relay struct {
	outbox  store.OutboxStore
	stock   Reconciler
	cfg     Config
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(outbox store.OutboxStore, stock Reconciler, cfg Config, m *metrics.Metrics, log *zap.Logger) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = store.DefaultBatch
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Relay{outbox: outbox, stock: stock, cfg: cfg, metrics: m, log: logger.OrNop(log)}
}

// Run processes the outbox immediately and then on every tick until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	res, err := r.ProcessOnce(ctx)
	if err != nil {
		r.log.Error("relay_fetch_failed", zap.Error(err))
		return
	}
	if res != (Result{}) {
		r.log.Info("relay_pass",
			zap.Int("processed", res.Processed),
			zap.Int("retried", res.Retried),
			zap.Int("dead", res.Dead))
	}
}

// ProcessOnce handles one batch of pending entries.
func (r *Relay) ProcessOnce(ctx context.Context) (Result, error) {
	var res Result
	entries, err := r.outbox.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("fetch pending outbox: %w", err)
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := r.handle(ctx, e)
		if err == nil {
			if markErr := r.outbox.MarkProcessed(ctx, e.ID); markErr != nil {
				r.log.Error("relay_mark_failed", zap.String("entry_id", e.ID), zap.Error(markErr))
				continue
			}
			res.Processed++
			r.metrics.IncRelay(metrics.RelayProcessed)
			continue
		}

		dead := permanent(err) || e.Attempts+1 >= r.cfg.MaxAttempts
		if markErr := r.outbox.MarkFailed(ctx, e.ID, err, dead); markErr != nil {
			r.log.Error("relay_mark_failed", zap.String("entry_id", e.ID), zap.Error(markErr))
			continue
		}
		fields := []zap.Field{
			zap.String("entry_id", e.ID),
			zap.String("event_type", e.EventType),
			zap.Int("attempts", e.Attempts+1),
			zap.Error(err),
		}
		if dead {
			res.Dead++
			r.metrics.IncRelay(metrics.RelayDead)
			r.log.Error("relay_entry_dead", fields...)
		} else {
			res.Retried++
			r.metrics.IncRelay(metrics.RelayRetried)
			r.log.Warn("relay_entry_retry", fields...)
		}
	}
	return res, nil
}

func (r *Relay) handle(ctx context.Context, e store.Entry) error {
	switch e.EventType {
	case inventory.EventStockAdjustmentRequested:
		var adj inventory.StockAdjustmentRequested
		if err := e.Decode(&adj); err != nil {
			return fmt.Errorf("%w: %w", errUndecodable, err)
		}
		stock, err := r.stock.Reconcile(ctx, adj.ProductID, adj.Quantity)
		if err != nil {
			return err
		}
		r.log.Info("stock_reconciled",
			zap.Int64("product_id", adj.ProductID),
			zap.String("order_number", adj.OrderNumber),
			zap.Int("stock", stock))
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownEvent, e.EventType)
	}
}

// permanent errors will not succeed on retry.
func permanent(err error) bool {
	return errors.Is(err, errUnknownEvent) ||
		errors.Is(err, errUndecodable) ||
		errors.Is(err, product.ErrProductNotFound) ||
		errors.Is(err, inventory.ErrInvalidQuantity)
}
