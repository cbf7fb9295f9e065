package order

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

// ListParams pages order lists; Status only applies to the admin list.
type ListParams struct {
	Page   int
	Limit  int
	Status Status
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	return q
}

type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

// Create posts the order header. idempotencyKey is sent as Idempotency-Key.
func (s *Service) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (*Order, error) {
	if req.ShippingAddress != nil {
		if err := validation.Struct(req.ShippingAddress); err != nil {
			return nil, fmt.Errorf("shipping address: %w", err)
		}
	}
	var o Order
	if err := s.api.Post(ctx, "/orders", req, &o, httpclient.WithIdempotencyKey(idempotencyKey)); err != nil {
		return nil, fmt.Errorf("create order %s: %w", req.OrderNumber, err)
	}
	return &o, nil
}

// AddItem posts one order line.
func (s *Service) AddItem(ctx context.Context, item Item, idempotencyKey string) (*Item, error) {
	if err := validation.Var("quantity", item.Quantity, "gt=0"); err != nil {
		return nil, err
	}
	var created Item
	if err := s.api.Post(ctx, "/order-items", item, &created, httpclient.WithIdempotencyKey(idempotencyKey)); err != nil {
		return nil, fmt.Errorf("create order item for product %d: %w", item.ProductID, err)
	}
	return &created, nil
}

// Items lists the lines of an order.
func (s *Service) Items(ctx context.Context, orderID int64) ([]Item, error) {
	var items []Item
	if _, err := s.api.Get(ctx, path(orderID)+"/items", nil, &items); err != nil {
		return nil, wrap(orderID, err)
	}
	return items, nil
}

// List returns the caller's own orders.
func (s *Service) List(ctx context.Context, params ListParams) ([]Order, *httpclient.Pagination, error) {
	var orders []Order
	env, err := s.api.Get(ctx, "/orders", params.query(), &orders)
	if err != nil {
		return nil, nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, env.Pagination, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	if _, err := s.api.Get(ctx, path(id), nil, &o); err != nil {
		return nil, wrap(id, err)
	}
	return &o, nil
}

// Cancel asks the backend to cancel an order; checkout uses it as compensation.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if err := s.api.Put(ctx, path(id)+"/cancel", struct{}{}, nil); err != nil {
		return wrap(id, err)
	}
	return nil
}

// AdminList returns all orders, optionally filtered by status.
func (s *Service) AdminList(ctx context.Context, params ListParams) ([]Order, *httpclient.Pagination, error) {
	var orders []Order
	env, err := s.api.Get(ctx, "/admin/orders", params.query(), &orders)
	if err != nil {
		return nil, nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, env.Pagination, nil
}

// UpdateStatus sets an order's status without a local transition check.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	var o Order
	body := map[string]Status{"status": status}
	if err := s.api.Put(ctx, "/admin/orders/"+strconv.FormatInt(id, 10)+"/status", body, &o); err != nil {
		return nil, wrap(id, err)
	}
	return &o, nil
}

// Transition fetches the order, checks the move locally, then updates it.
func (s *Service) Transition(ctx context.Context, id int64, target Status) (*Order, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanTransitionTo(target) {
		return nil, current.transitionError(target)
	}
	return s.UpdateStatus(ctx, id, target)
}

func path(id int64) string { return "/orders/" + strconv.FormatInt(id, 10) }

func wrap(id int64, err error) error {
	if httpclient.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrOrderNotFound, id, err)
	}
	return fmt.Errorf("order %d: %w", id, err)
}
