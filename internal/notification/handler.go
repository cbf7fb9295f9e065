package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/email"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/logger"
)

// Mailer sends the order confirmation.
type Mailer interface {
	SendOrderConfirmation(to string, c email.Confirmation) error
}

// Handler processes checkout events for sending notifications
type Handler struct {
	mailer Mailer
	log    *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, log *zap.Logger) *Handler {
	return &Handler{mailer: mailer, log: logger.OrNop(log)}
}

// HandleMessage is a kafka.MessageHandler. Only CheckoutCompleted is acted on.
func (h *Handler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if msg.EventType != checkout.EventCheckoutCompleted {
		return nil
	}

	var e checkout.CheckoutCompleted
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	return h.handleCheckoutCompleted(e)
}

func (h *Handler) handleCheckoutCompleted(e checkout.CheckoutCompleted) error {
	log := h.log.With(zap.String("order_number", e.OrderNumber), zap.Int64("order_id", e.OrderID))
	if e.CustomerEmail == "" {
		log.Info("notification_skipped_no_recipient")
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.TotalPrice,
		}
	}

	err := h.mailer.SendOrderConfirmation(e.CustomerEmail, email.Confirmation{
		OrderNumber: e.OrderNumber,
		Items:       items,
		Subtotal:    e.Totals.Subtotal,
		Tax:         e.Totals.Tax,
		Shipping:    e.Totals.Shipping,
		Total:       e.Totals.Total,
		Currency:    e.Totals.Currency,
	})
	if err != nil {
		return fmt.Errorf("order confirmation %s: %w", e.OrderNumber, err)
	}

	log.Info("order_confirmation_sent", zap.String("to", e.CustomerEmail))
	return nil
}
