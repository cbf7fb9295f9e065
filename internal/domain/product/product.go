package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	CategoryID  int64           `json:"category_id,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether at least n units are available.
func (p Product) InStock(n int) bool {
	return p.Stock >= n
}

// ListParams filters GET /products. Zero values are omitted.
type ListParams struct {
	Page     int
	Limit    int
	Category int64
	Search   string
	Sort     string // price_asc, price_desc, name, newest
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Category > 0 {
		q.Set("category", strconv.FormatInt(p.Category, 10))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	return q
}

// Input is the admin create/update payload.
type Input struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images,omitempty"`
	CategoryID  int64           `json:"category_id,omitempty"`
	IsActive    bool            `json:"is_active"`
}

func (in Input) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Product, *httpclient.Pagination, error) {
	var products []Product
	env, err := s.api.Get(ctx, "/products", params.query(), &products)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	return products, env.Pagination, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if _, err := s.api.Get(ctx, path(id), nil, &p); err != nil {
		return nil, notFound(id, err)
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p Product
	if err := s.api.Post(ctx, "/admin/products", in, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p Product
	if err := s.api.Put(ctx, adminPath(id), in, &p); err != nil {
		return nil, notFound(id, err)
	}
	return &p, nil
}

// SetStock overwrites the stock counter through the generic admin update endpoint.
func (s *Service) SetStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		stock = 0
	}
	body := map[string]int{"stock": stock}
	if err := s.api.Put(ctx, adminPath(id), body, nil); err != nil {
		return notFound(id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, adminPath(id), nil); err != nil {
		return notFound(id, err)
	}
	return nil
}

func path(id int64) string { return "/products/" + strconv.FormatInt(id, 10) }
func adminPath(id int64) string { return "/admin/products/" + strconv.FormatInt(id, 10) }

func notFound(id int64, err error) error {
	if httpclient.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrProductNotFound, id, err)
	}
	return fmt.Errorf("product %d: %w", id, err)
}
