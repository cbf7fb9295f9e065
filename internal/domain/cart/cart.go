package cart

import (
	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/domain/product"
)

// LineItem is one product in the cart. Quantity is always > 0.
type LineItem struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is quantity × unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is the whole cart. TotalItems and TotalAmount are derived from Items
// after every transition and never set independently.
type State struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Empty returns the initial cart.
func Empty() State {
	return State{Items: []LineItem{}, TotalAmount: decimal.Zero}
}

// Reduce applies action to state and returns the next state. It never fails:
// unknown product ids are no-ops, a quantity <= 0 on update removes the line,
// and an add with quantity < 1 is ignored. The input state is not modified.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionAddItem:
		if action.Quantity < 1 {
			return state
		}
		items := cloneItems(state.Items)
		if i := indexOf(items, action.Product.ID); i >= 0 {
			items[i].Quantity += action.Quantity
		} else {
			items = append(items, LineItem{Product: cloneProduct(action.Product), Quantity: action.Quantity})
		}
		return withTotals(items)

	case ActionRemoveItem:
		i := indexOf(state.Items, action.ProductID)
		if i < 0 {
			return state
		}
		items := cloneItems(state.Items)
		items = append(items[:i], items[i+1:]...)
		return withTotals(items)

	case ActionUpdateQuantity:
		if action.Quantity <= 0 {
			return Reduce(state, RemoveItem(action.ProductID))
		}
		i := indexOf(state.Items, action.ProductID)
		if i < 0 {
			return state
		}
		items := cloneItems(state.Items)
		items[i].Quantity = action.Quantity
		return withTotals(items)

	case ActionClear:
		return Empty()
	}
	return state
}

func withTotals(items []LineItem) State {
	s := State{Items: items, TotalAmount: decimal.Zero}
	for _, it := range items {
		s.TotalItems += it.Quantity
		s.TotalAmount = s.TotalAmount.Add(it.Subtotal())
	}
	return s
}

func indexOf(items []LineItem, productID int64) int {
	for i, it := range items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}

func cloneProduct(p product.Product) product.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}
