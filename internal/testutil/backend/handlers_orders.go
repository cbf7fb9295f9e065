package backend

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

var transitions = map[string][]string{
	"pending":    {"processing", "cancelled"},
	"processing": {"shipped", "cancelled"},
	"shipped":    {"delivered"},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type orderView struct {
	Order
	Items []OrderItem `json:"items"`
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req Order
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OrderNumber) == "" || req.TotalAmount.IsNegative() {
		respondError(w, "order_number is required and total_amount must not be negative", http.StatusBadRequest)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	b.mu.Lock()
	defer b.mu.Unlock()
	if key != "" {
		if prev, ok := b.idempotency["orders:"+key].(int64); ok {
			respondData(w, http.StatusOK, *b.orders[prev])
			return
		}
	}

	now := time.Now().UTC()
	req.ID = b.id()
	req.UserID = claims.UserID
	req.Status = "pending"
	req.CreatedAt, req.UpdatedAt = now, now
	o := req
	b.orders[o.ID] = &o
	if key != "" {
		b.idempotency["orders:"+key] = o.ID
	}
	b.logLocked("info", "order created: "+o.OrderNumber, &claims.UserID)
	respondData(w, http.StatusCreated, o)
}

func (b *Backend) listOwnOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	b.mu.Lock()
	list := make([]Order, 0)
	for _, o := range b.orders {
		if o.UserID == claims.UserID {
			list = append(list, *o)
		}
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	page, p := paginate(r, list)
	respondPage(w, page, p)
}

func (b *Backend) listAllOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	b.mu.Lock()
	list := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		if status == "" || o.Status == status {
			list = append(list, *o)
		}
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	page, p := paginate(r, list)
	respondPage(w, page, p)
}

// ownedOrderLocked resolves an order visible to the caller; admins see all.
func (b *Backend) ownedOrderLocked(w http.ResponseWriter, r *http.Request, id int64) (*Order, bool) {
	claims, _ := claimsFrom(r.Context())
	o, found := b.orders[id]
	if !found || (o.UserID != claims.UserID && claims.Role != RoleAdmin) {
		respondError(w, "order not found", http.StatusNotFound)
		return nil, false
	}
	return o, true
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.ownedOrderLocked(w, r, id)
	if !ok {
		return
	}
	view := orderView{Order: *o, Items: []OrderItem{}}
	for _, it := range b.items[id] {
		view.Items = append(view.Items, *it)
	}
	respondData(w, http.StatusOK, view)
}

func (b *Backend) listOrderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ownedOrderLocked(w, r, id); !ok {
		return
	}
	list := make([]OrderItem, 0, len(b.items[id]))
	for _, it := range b.items[id] {
		list = append(list, *it)
	}
	respondData(w, http.StatusOK, list)
}

func (b *Backend) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.ownedOrderLocked(w, r, id)
	if !ok {
		return
	}
	if !canTransition(o.Status, "cancelled") {
		respondError(w, "order cannot be cancelled from status "+o.Status, http.StatusConflict)
		return
	}
	o.Status = "cancelled"
	o.UpdatedAt = time.Now().UTC()
	respondData(w, http.StatusOK, *o)
}

func (b *Backend) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[id]
	if !found {
		respondError(w, "order not found", http.StatusNotFound)
		return
	}
	if !canTransition(o.Status, req.Status) {
		respondError(w, "invalid status transition "+o.Status+" -> "+req.Status, http.StatusUnprocessableEntity)
		return
	}
	o.Status = req.Status
	o.UpdatedAt = time.Now().UTC()
	respondData(w, http.StatusOK, *o)
}

func (b *Backend) createOrderItem(w http.ResponseWriter, r *http.Request) {
	var req OrderItem
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondError(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ownedOrderLocked(w, r, req.OrderID); !ok {
		return
	}
	if _, ok := b.products[req.ProductID]; !ok {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	if key != "" {
		if prev, ok := b.idempotency["items:"+key].(*OrderItem); ok {
			respondData(w, http.StatusOK, *prev)
			return
		}
	}

	req.ID = b.id()
	it := req
	b.items[it.OrderID] = append(b.items[it.OrderID], &it)
	if key != "" {
		b.idempotency["items:"+key] = &it
	}
	respondData(w, http.StatusCreated, it)
}
