package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/inventory"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
)

const DefaultPaymentMethod = "credit_card"

var ErrEmptyCart = errors.New("cart is empty")

// Orders is the order API used while submitting a cart.
type Orders interface {
	Create(ctx context.Context, req order.CreateRequest, idempotencyKey string) (*order.Order, error)
	AddItem(ctx context.Context, item order.Item, idempotencyKey string) (*order.Item, error)
	Cancel(ctx context.Context, id int64) error
}

// Stock applies the post-purchase stock decrement.
type Stock interface {
	Decrement(ctx context.Context, snapshot product.Product, qty int) (int, error)
}

type Input struct {
	ShippingAddress *order.Address
	PaymentMethod   string
	CustomerEmail   string
}

type Orchestrator struct {
	cart          *cart.Store
	orders        Orders
	stock         Stock
	outbox        store.OutboxStore
	publisher     EventPublisher
	metrics       *metrics.Metrics
	log           *zap.Logger
	paymentMethod string
	now           func() time.Time
}

type Option func(*Orchestrator)

// WithOutbox records failed stock decrements for the relay.
func WithOutbox(outbox store.OutboxStore) Option {
	return func(o *Orchestrator) { o.outbox = outbox }
}

func WithPublisher(p EventPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.OrNop(log) }
}

// WithDefaultPaymentMethod replaces credit_card as the fallback method.
func WithDefaultPaymentMethod(method string) Option {
	return func(o *Orchestrator) {
		if method != "" {
			o.paymentMethod = method
		}
	}
}

func New(c *cart.Store, orders Orders, stock Stock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cart:          c,
		orders:        orders,
		stock:         stock,
		log:           zap.NewNop(),
		paymentMethod: DefaultPaymentMethod,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Quote prices the current cart.
func (o *Orchestrator) Quote() Totals {
	return Quote(o.cart.Snapshot())
}

// Checkout submits the cart as an order and returns the backend order id.
//
// The header is created first, then each line in cart order. A failed line
// aborts the checkout, asks the backend to cancel the half-written order, and
// returns the line's error. A failed stock decrement does not abort; it is
// queued in the outbox instead. Only on success are the submitted lines
// taken out of the cart; lines added meanwhile stay.
func (o *Orchestrator) Checkout(ctx context.Context, in Input) (int64, error) {
	state := o.cart.Snapshot()
	if len(state.Items) == 0 {
		o.metrics.IncCheckout(metrics.OutcomeRejected)
		return 0, ErrEmptyCart
	}

	totals := Quote(state)
	number := NewOrderNumber(o.now())
	payment := in.PaymentMethod
	if payment == "" {
		payment = o.paymentMethod
	}
	log := o.log.With(zap.String("order_number", number))

	created, err := o.orders.Create(ctx, order.CreateRequest{
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.Tax,
		ShippingAmount:  totals.Shipping,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		Currency:        totals.Currency,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   payment,
		OrderNumber:     number,
	}, number)
	if err != nil {
		log.Warn("checkout_order_failed", zap.Error(err))
		o.failed(ctx, CheckoutFailed{OrderNumber: number, Stage: StageCreateOrder, Reason: err.Error()})
		return 0, fmt.Errorf("checkout %s: %w", number, err)
	}
	log = log.With(zap.Int64("order_id", created.ID))

	items := make([]CompletedItem, 0, len(state.Items))
	for _, line := range state.Items {
		item := order.Item{
			OrderID:    created.ID,
			ProductID:  line.Product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Product.Price,
			TotalPrice: line.Subtotal(),
			ProductSnapshot: order.ProductSnapshot{
				Name:        line.Product.Name,
				Description: line.Product.Description,
				Images:      line.Product.Images,
			},
		}
		if _, err := o.orders.AddItem(ctx, item, ItemKey(number, line.Product.ID)); err != nil {
			log.Warn("checkout_item_failed", zap.Int64("product_id", line.Product.ID), zap.Error(err))
			compensated := o.compensate(ctx, log, created.ID)
			o.failed(ctx, CheckoutFailed{
				OrderID:     created.ID,
				OrderNumber: number,
				Stage:       StageAddItem,
				Reason:      err.Error(),
				Compensated: compensated,
			})
			return 0, fmt.Errorf("checkout %s: %w", number, err)
		}
		o.decrement(ctx, log, created.ID, number, line)

		items = append(items, CompletedItem{
			ProductID:  line.Product.ID,
			Name:       line.Product.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.Product.Price,
			TotalPrice: item.TotalPrice,
		})
	}

	o.cart.Settle(state.Items)
	o.metrics.IncCheckout(metrics.OutcomeCompleted)
	log.Info("checkout_completed", zap.String("total", totals.Total.StringFixed(2)), zap.Int("lines", len(items)))

	o.publish(ctx, number, CheckoutCompleted{
		OrderID:       created.ID,
		OrderNumber:   number,
		CustomerEmail: in.CustomerEmail,
		PaymentMethod: payment,
		Items:         items,
		Totals:        totals,
		CompletedAt:   o.now().UTC(),
	})
	return created.ID, nil
}

func (o *Orchestrator) decrement(ctx context.Context, log *zap.Logger, orderID int64, number string, line cart.LineItem) {
	_, err := o.stock.Decrement(ctx, line.Product, line.Quantity)
	if err == nil {
		return
	}
	log.Warn("stock_decrement_failed", zap.Int64("product_id", line.Product.ID), zap.Int("quantity", line.Quantity), zap.Error(err))
	o.metrics.IncStockDeferred()
	if o.outbox == nil {
		return
	}

	_, appendErr := o.outbox.Append(ctx, strconv.FormatInt(line.Product.ID, 10), inventory.AggregateType,
		inventory.EventStockAdjustmentRequested, inventory.StockAdjustmentRequested{
			OrderID:       orderID,
			OrderNumber:   number,
			ProductID:     line.Product.ID,
			Quantity:      line.Quantity,
			SnapshotStock: line.Product.Stock,
			Reason:        err.Error(),
			RequestedAt:   o.now().UTC(),
		})
	if appendErr != nil {
		log.Error("stock_adjustment_not_queued", zap.Int64("product_id", line.Product.ID), zap.Error(appendErr))
	}
}

// compensate cancels a partially written order. Its failure never replaces
// the error that triggered it.
func (o *Orchestrator) compensate(ctx context.Context, log *zap.Logger, orderID int64) bool {
	if err := o.orders.Cancel(ctx, orderID); err != nil {
		log.Error("checkout_compensation_failed", zap.Error(err))
		return false
	}
	log.Info("checkout_compensated")
	return true
}

func (o *Orchestrator) failed(ctx context.Context, ev CheckoutFailed) {
	o.metrics.IncCheckout(metrics.OutcomeFailed)
	ev.FailedAt = o.now().UTC()
	o.publish(ctx, ev.OrderNumber, ev)
}

func (o *Orchestrator) publish(ctx context.Context, key string, event any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, key, event); err != nil {
		o.log.Warn("checkout_event_publish_failed", zap.String("key", key), zap.Error(err))
	}
}
