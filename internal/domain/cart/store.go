package cart

import (
	"sync"

	"github.com/example/ec-storefront/internal/domain/product"
)

// Store owns one cart for the lifetime of a session. It is never persisted.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: Empty()}
}

// Dispatch applies an action and returns the resulting state.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	return s.snapshotLocked()
}

// Add puts one unit of p in the cart.
func (s *Store) Add(p product.Product) State { return s.Dispatch(AddItem(p, 1)) }

func (s *Store) AddItem(p product.Product, quantity int) State {
	return s.Dispatch(AddItem(p, quantity))
}

func (s *Store) RemoveItem(productID int64) State { return s.Dispatch(RemoveItem(productID)) }

func (s *Store) UpdateQuantity(productID int64, quantity int) State {
	return s.Dispatch(UpdateQuantity(productID, quantity))
}

func (s *Store) Clear() State { return s.Dispatch(Clear()) }

// Settle takes the submitted lines out of the cart. Each line's quantity drops
// by what was submitted and lines that reach zero are removed. Anything added
// after the submitted snapshot was taken stays in the cart.
func (s *Store) Settle(submitted []LineItem) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range submitted {
		i := indexOf(s.state.Items, sub.Product.ID)
		if i < 0 {
			continue
		}
		s.state = Reduce(s.state, UpdateQuantity(sub.Product.ID, s.state.Items[i].Quantity-sub.Quantity))
	}
	return s.snapshotLocked()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Items) == 0
}

// Line returns the line for productID, if present.
func (s *Store) Line(productID int64) (LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.state.Items, productID); i >= 0 {
		it := s.state.Items[i]
		it.Product = cloneProduct(it.Product)
		return it, true
	}
	return LineItem{}, false
}

// OverStock lists lines whose quantity exceeds the stock seen when the product
// was added. The cart does not clamp; callers decide how to warn.
func (s *Store) OverStock() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LineItem
	for _, it := range s.state.Items {
		if !it.Product.InStock(it.Quantity) {
			it.Product = cloneProduct(it.Product)
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) snapshotLocked() State {
	items := make([]LineItem, len(s.state.Items))
	for i, it := range s.state.Items {
		it.Product = cloneProduct(it.Product)
		items[i] = it
	}
	return State{Items: items, TotalItems: s.state.TotalItems, TotalAmount: s.state.TotalAmount}
}
