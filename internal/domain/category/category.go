package category

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

var ErrCategoryNotFound = errors.New("category not found")

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Input struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	var categories []Category
	if _, err := s.api.Get(ctx, "/categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if _, err := s.api.Get(ctx, "/categories/"+strconv.FormatInt(id, 10), nil, &c); err != nil {
		return nil, wrap(id, err)
	}
	return &c, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var c Category
	if err := s.api.Post(ctx, "/admin/categories", in, &c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var c Category
	if err := s.api.Put(ctx, adminPath(id), in, &c); err != nil {
		return nil, wrap(id, err)
	}
	return &c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, adminPath(id), nil); err != nil {
		return wrap(id, err)
	}
	return nil
}

func adminPath(id int64) string { return "/admin/categories/" + strconv.FormatInt(id, 10) }

func wrap(id int64, err error) error {
	if httpclient.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrCategoryNotFound, id, err)
	}
	return fmt.Errorf("category %d: %w", id, err)
}
