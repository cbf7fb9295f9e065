package cart

import "github.com/example/ec-storefront/internal/domain/product"

type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionClear          ActionType = "CLEAR_CART"
)

// Action is one cart mutation. Fields unused by a type are ignored.
type Action struct {
	Type      ActionType
	Product   product.Product // ADD_ITEM
	ProductID int64           // REMOVE_ITEM, UPDATE_QUANTITY
	Quantity  int             // ADD_ITEM, UPDATE_QUANTITY
}

func AddItem(p product.Product, quantity int) Action {
	return Action{Type: ActionAddItem, Product: p, Quantity: quantity}
}

func RemoveItem(productID int64) Action {
	return Action{Type: ActionRemoveItem, ProductID: productID}
}

func UpdateQuantity(productID int64, quantity int) Action {
	return Action{Type: ActionUpdateQuantity, ProductID: productID, Quantity: quantity}
}

func Clear() Action {
	return Action{Type: ActionClear}
}
