package backend

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================
// Products
// ============================================

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	category, _ := strconv.ParseInt(q.Get("category"), 10, 64)

	b.mu.Lock()
	list := make([]Product, 0, len(b.products))
	for _, p := range b.products {
		if category > 0 && p.CategoryID != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		list = append(list, *p)
	}
	b.mu.Unlock()

	switch q.Get("sort") {
	case "price_asc":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price.LessThan(list[j].Price) })
	case "price_desc":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price.GreaterThan(list[j].Price) })
	case "name":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	case "newest":
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	default:
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	page, p := paginate(r, list)
	respondPage(w, page, p)
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	p, found := b.products[id]
	var out Product
	if found {
		out = *p
	}
	b.mu.Unlock()
	if !found {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	respondData(w, http.StatusOK, out)
}

func (b *Backend) createProduct(w http.ResponseWriter, r *http.Request) {
	var req Product
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() || req.Stock < 0 {
		respondError(w, "name is required and price/stock must not be negative", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	now := time.Now().UTC()
	req.ID = b.id()
	req.CreatedAt, req.UpdatedAt = now, now
	if req.Images == nil {
		req.Images = []string{}
	}
	p := req
	b.products[p.ID] = &p
	b.mu.Unlock()

	respondData(w, http.StatusCreated, p)
}

// updateProduct applies only the fields present in the body.
func (b *Backend) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var fields map[string]json.RawMessage
	if !decode(w, r, &fields) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.products[id]
	if !found {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	next := *p
	for key, raw := range fields {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(raw, &next.Name)
		case "description":
			err = json.Unmarshal(raw, &next.Description)
		case "price":
			err = json.Unmarshal(raw, &next.Price)
		case "stock":
			err = json.Unmarshal(raw, &next.Stock)
		case "images":
			err = json.Unmarshal(raw, &next.Images)
		case "category_id":
			err = json.Unmarshal(raw, &next.CategoryID)
		case "is_active":
			err = json.Unmarshal(raw, &next.IsActive)
		}
		if err != nil {
			respondError(w, "invalid field "+key, http.StatusBadRequest)
			return
		}
	}
	if next.Stock < 0 || next.Price.IsNegative() {
		respondError(w, "price/stock must not be negative", http.StatusBadRequest)
		return
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	respondData(w, http.StatusOK, next)
}

func (b *Backend) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	_, found := b.products[id]
	delete(b.products, id)
	b.mu.Unlock()
	if !found {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "product deleted")
}

// ============================================
// Categories (served without the data envelope)
// ============================================

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	list := make([]Category, 0, len(b.categories))
	for _, c := range b.categories {
		list = append(list, *c)
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	respondJSON(w, http.StatusOK, list)
}

func (b *Backend) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	c, found := b.categories[id]
	var out Category
	if found {
		out = *c
	}
	b.mu.Unlock()
	if !found {
		respondError(w, "category not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) createCategory(w http.ResponseWriter, r *http.Request) {
	var req Category
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	req.ID = b.id()
	req.CreatedAt = time.Now().UTC()
	c := req
	b.categories[c.ID] = &c
	b.mu.Unlock()
	respondData(w, http.StatusCreated, c)
}

func (b *Backend) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req Category
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, found := b.categories[id]
	if !found {
		respondError(w, "category not found", http.StatusNotFound)
		return
	}
	if req.Name != "" {
		c.Name = req.Name
	}
	c.Description = req.Description
	respondData(w, http.StatusOK, *c)
}

func (b *Backend) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	_, found := b.categories[id]
	delete(b.categories, id)
	b.mu.Unlock()
	if !found {
		respondError(w, "category not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "category deleted")
}

// ============================================
// Reviews
// ============================================

func (b *Backend) listProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	list := make([]Review, 0)
	for _, rv := range b.reviews {
		if rv.ProductID == id {
			list = append(list, *rv)
		}
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	respondData(w, http.StatusOK, list)
}

type reviewRequest struct {
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (b *Backend) createReview(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req reviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.products[req.ProductID]; !ok {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	now := time.Now().UTC()
	rv := &Review{
		ID:        b.id(),
		ProductID: req.ProductID,
		UserID:    claims.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if u, ok := b.users[claims.UserID]; ok {
		rv.UserName = u.Name
	}
	b.reviews[rv.ID] = rv
	respondData(w, http.StatusCreated, *rv)
}

func (b *Backend) updateReview(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rv, found := b.reviews[id]
	if !found {
		respondError(w, "review not found", http.StatusNotFound)
		return
	}
	if rv.UserID != claims.UserID {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}
	rv.Rating = req.Rating
	rv.Comment = req.Comment
	rv.UpdatedAt = time.Now().UTC()
	respondData(w, http.StatusOK, *rv)
}

func (b *Backend) deleteReview(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rv, found := b.reviews[id]
	if !found {
		respondError(w, "review not found", http.StatusNotFound)
		return
	}
	if rv.UserID != claims.UserID {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}
	delete(b.reviews, id)
	respondMessage(w, "review deleted")
}

func (b *Backend) listAllReviews(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	list := make([]Review, 0, len(b.reviews))
	for _, rv := range b.reviews {
		list = append(list, *rv)
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	page, p := paginate(r, list)
	respondPage(w, page, p)
}

func (b *Backend) adminDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	_, found := b.reviews[id]
	delete(b.reviews, id)
	b.mu.Unlock()
	if !found {
		respondError(w, "review not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "review deleted")
}
