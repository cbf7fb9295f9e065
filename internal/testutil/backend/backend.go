// Package backend is an in-process stand-in for the storefront REST API.
// Tests drive the real HTTP client against it.
package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/infrastructure/tokenstore"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"

	secret = "backend-test-secret"
)

// Call is one request the backend received.
type Call struct {
	Method         string
	Path           string
	IdempotencyKey string
	Authorization  string
}

type fault struct {
	method string
	path   string
	status int
	times  int
}

// Backend holds all server-side state behind a single mutex.
type Backend struct {
	mu     sync.Mutex
	srv    *httptest.Server
	issuer *Issuer
	nextID int64

	users      map[int64]*User
	passwords  map[int64]string
	products   map[int64]*Product
	categories map[int64]*Category
	orders     map[int64]*Order
	items      map[int64][]*OrderItem
	reviews    map[int64]*Review
	logs       []*LogEntry

	idempotency map[string]any
	calls       []Call
	faults      []*fault
}

// New starts a backend and stops it when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		issuer:      NewIssuer(secret, time.Hour),
		users:       map[int64]*User{},
		passwords:   map[int64]string{},
		products:    map[int64]*Product{},
		categories:  map[int64]*Category{},
		orders:      map[int64]*Order{},
		items:       map[int64][]*OrderItem{},
		reviews:     map[int64]*Review{},
		idempotency: map[string]any{},
	}
	b.srv = httptest.NewServer(b.router())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the API base URL, including the /api prefix.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

// Client returns an API client that sends token, or no token when empty.
func (b *Backend) Client(token string) *httpclient.Client {
	store := tokenstore.NewMemoryStore()
	if token != "" {
		_ = store.Save(context.Background(), token)
	}
	return httpclient.New(b.URL(), httpclient.WithTokenSource(store))
}

// SeedAdmin creates an admin account and returns its id and a token.
func (b *Backend) SeedAdmin() (int64, string) {
	id := b.SeedUser("Admin", "admin@example.com", "admin-password", RoleAdmin)
	return id, b.TokenFor(id)
}

// SeedCustomer creates a customer account and returns its id and a token.
func (b *Backend) SeedCustomer(email string) (int64, string) {
	id := b.SeedUser("Customer", email, "customer-password", RoleCustomer)
	return id, b.TokenFor(id)
}

// Close stops the server early, e.g. to simulate an unreachable backend.
func (b *Backend) Close() { b.srv.Close() }

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.recordCalls, b.injectFaults)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)

		r.Get("/products", b.listProducts)
		r.Get("/products/{id}", b.getProduct)
		r.Get("/products/{id}/reviews", b.listProductReviews)
		r.Get("/categories", b.listCategories)
		r.Get("/categories/{id}", b.getCategory)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(b.issuer))

			r.Get("/auth/profile", b.getProfile)
			r.Put("/auth/profile", b.updateProfile)

			r.Post("/orders", b.createOrder)
			r.Get("/orders", b.listOwnOrders)
			r.Get("/orders/{id}", b.getOrder)
			r.Put("/orders/{id}/cancel", b.cancelOrder)
			r.Get("/orders/{id}/items", b.listOrderItems)
			r.Post("/order-items", b.createOrderItem)

			r.Post("/reviews", b.createReview)
			r.Put("/reviews/{id}", b.updateReview)
			r.Delete("/reviews/{id}", b.deleteReview)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(RoleAdmin))

				r.Post("/products", b.createProduct)
				r.Put("/products/{id}", b.updateProduct)
				r.Delete("/products/{id}", b.deleteProduct)

				r.Post("/categories", b.createCategory)
				r.Put("/categories/{id}", b.updateCategory)
				r.Delete("/categories/{id}", b.deleteCategory)

				r.Get("/orders", b.listAllOrders)
				r.Put("/orders/{id}/status", b.updateOrderStatus)

				r.Get("/reviews", b.listAllReviews)
				r.Delete("/reviews/{id}", b.adminDeleteReview)

				r.Get("/users", b.listUsers)
				r.Get("/users/{id}", b.getUser)
				r.Put("/users/{id}", b.updateUser)
				r.Delete("/users/{id}", b.deleteUser)

				r.Get("/logs", b.listLogs)
			})
		})
	})
	return r
}

func (b *Backend) recordCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method:         r.Method,
			Path:           strings.TrimPrefix(r.URL.Path, "/api"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Authorization:  r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		b.mu.Lock()
		var hit *fault
		for _, f := range b.faults {
			if f.times > 0 && f.method == r.Method && f.path == path {
				f.times--
				hit = f
				break
			}
		}
		b.mu.Unlock()
		if hit != nil {
			respondError(w, "injected failure", hit.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes the next `times` requests for method+path (without /api) answer status.
func (b *Backend) Fail(method, path string, status, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, &fault{method: method, path: path, status: status, times: times})
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsTo filters Calls by method and path.
func (b *Backend) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// ============================================
// Seeding and inspection
// ============================================

// SeedUser creates an account and returns its id.
func (b *Backend) SeedUser(name, email, password, role string) int64 {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertUserLocked(name, email, hash, role)
}

// SeedProduct creates an active product and returns its id.
func (b *Backend) SeedProduct(name, price string, stock int) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC()
	id := b.id()
	b.products[id] = &Product{
		ID:          id,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Images:      []string{"/img/" + strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".png"},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return id
}

// SeedCategory creates a category and returns its id.
func (b *Backend) SeedCategory(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.id()
	b.categories[id] = &Category{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	return id
}

// SetProductCategory assigns a product to a category.
func (b *Backend) SetProductCategory(productID, categoryID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.products[productID]; ok {
		p.CategoryID = categoryID
	}
}

// SeedLog appends an activity log entry.
func (b *Backend) SeedLog(level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logLocked(level, message, nil)
}

// TokenFor mints a valid token for an existing user.
func (b *Backend) TokenFor(userID int64) string {
	b.mu.Lock()
	u := b.users[userID]
	b.mu.Unlock()
	token, _, err := b.issuer.Issue(userID, u.Email, u.Role)
	if err != nil {
		panic(err)
	}
	return token
}

// ExpiredTokenFor mints a token that expired a minute ago.
func (b *Backend) ExpiredTokenFor(userID int64) string {
	b.mu.Lock()
	u := b.users[userID]
	b.mu.Unlock()
	token, err := b.issuer.IssueUntil(userID, u.Email, u.Role, time.Now().Add(-time.Minute))
	if err != nil {
		panic(err)
	}
	return token
}

// ProductStock returns the stored stock of a product.
func (b *Backend) ProductStock(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.products[id]; ok {
		return p.Stock
	}
	return -1
}

// SetProductStock overwrites stock, e.g. to simulate a concurrent purchase.
func (b *Backend) SetProductStock(id int64, stock int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.products[id]; ok {
		p.Stock = stock
	}
}

// Order returns a copy of a stored order.
func (b *Backend) Order(id int64) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// OrderCount is the number of stored orders.
func (b *Backend) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// OrderItems returns copies of the items of an order.
func (b *Backend) OrderItems(orderID int64) []OrderItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]OrderItem, 0, len(b.items[orderID]))
	for _, it := range b.items[orderID] {
		out = append(out, *it)
	}
	return out
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) insertUserLocked(name, email, hash, role string) int64 {
	now := time.Now().UTC()
	id := b.id()
	b.users[id] = &User{ID: id, Name: name, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	b.passwords[id] = hash
	return id
}

func (b *Backend) logLocked(level, message string, userID *int64) {
	b.logs = append(b.logs, &LogEntry{
		ID:        b.id(),
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
}
