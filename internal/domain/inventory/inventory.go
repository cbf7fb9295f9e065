package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ec-storefront/internal/domain/product"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Catalog is the slice of the product API that stock bookkeeping needs.
type Catalog interface {
	Get(ctx context.Context, id int64) (*product.Product, error)
	SetStock(ctx context.Context, id int64, stock int) error
}

type Service struct {
	catalog Catalog
}

func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// Remaining is stock minus qty, floored at zero.
func Remaining(stock, qty int) int {
	if left := stock - qty; left > 0 {
		return left
	}
	return 0
}

// Decrement writes snapshot.Stock - qty back to the product. It uses the stock
// seen when the product was added to the cart, not a fresh read.
func (s *Service) Decrement(ctx context.Context, snapshot product.Product, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	next := Remaining(snapshot.Stock, qty)
	if err := s.catalog.SetStock(ctx, snapshot.ID, next); err != nil {
		return 0, fmt.Errorf("decrement stock of product %d: %w", snapshot.ID, err)
	}
	return next, nil
}

// Reconcile re-reads the product and subtracts qty from its current stock.
func (s *Service) Reconcile(ctx context.Context, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	current, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("reconcile stock of product %d: %w", productID, err)
	}
	next := Remaining(current.Stock, qty)
	if err := s.catalog.SetStock(ctx, productID, next); err != nil {
		return 0, fmt.Errorf("reconcile stock of product %d: %w", productID, err)
	}
	return next, nil
}
