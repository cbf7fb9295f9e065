package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventCheckoutCompleted = "CheckoutCompleted"
	EventCheckoutFailed    = "CheckoutFailed"
)

// Failure stages reported in CheckoutFailed.
const (
	StageCreateOrder = "create_order"
	StageAddItem     = "add_item"
)

// EventPublisher delivers checkout lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type CompletedItem struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CheckoutCompleted struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	PaymentMethod string          `json:"payment_method"`
	Items         []CompletedItem `json:"items"`
	Totals        Totals          `json:"totals"`
	CompletedAt   time.Time       `json:"completed_at"`
}

func (CheckoutCompleted) EventType() string { return EventCheckoutCompleted }

type CheckoutFailed struct {
	OrderID     int64     `json:"order_id,omitempty"`
	OrderNumber string    `json:"order_number"`
	Stage       string    `json:"stage"`
	Reason      string    `json:"reason"`
	Compensated bool      `json:"compensated"`
	FailedAt    time.Time `json:"failed_at"`
}

func (CheckoutFailed) EventType() string { return EventCheckoutFailed }
