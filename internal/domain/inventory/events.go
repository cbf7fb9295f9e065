package inventory

import "time"

const (
	AggregateType = "Inventory"

	EventStockAdjustmentRequested = "StockAdjustmentRequested"
)

// StockAdjustmentRequested records a stock decrement that could not be applied
// inline during checkout. The relay replays it against the current stock.
type StockAdjustmentRequested struct {
	OrderID       int64     `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	ProductID     int64     `json:"product_id"`
	Quantity      int       `json:"quantity"`
	SnapshotStock int       `json:"snapshot_stock"`
	Reason        string    `json:"reason"`
	RequestedAt   time.Time `json:"requested_at"`
}
