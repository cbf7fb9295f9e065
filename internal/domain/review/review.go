package review

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

var ErrReviewNotFound = errors.New("review not found")

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Input struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// AverageRating returns the mean rating, or 0 for no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

func (s *Service) ListForProduct(ctx context.Context, productID int64) ([]Review, error) {
	var reviews []Review
	if _, err := s.api.Get(ctx, "/products/"+strconv.FormatInt(productID, 10)+"/reviews", nil, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews for product %d: %w", productID, err)
	}
	return reviews, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Review, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var r Review
	if err := s.api.Post(ctx, "/reviews", in, &r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &r, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Review, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var r Review
	if err := s.api.Put(ctx, path(id), in, &r); err != nil {
		return nil, wrap(id, err)
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, path(id), nil); err != nil {
		return wrap(id, err)
	}
	return nil
}

func (s *Service) AdminList(ctx context.Context, page, limit int) ([]Review, *httpclient.Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var reviews []Review
	env, err := s.api.Get(ctx, "/admin/reviews", q, &reviews)
	if err != nil {
		return nil, nil, fmt.Errorf("list all reviews: %w", err)
	}
	return reviews, env.Pagination, nil
}

func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, "/admin"+path(id), nil); err != nil {
		return wrap(id, err)
	}
	return nil
}

func path(id int64) string { return "/reviews/" + strconv.FormatInt(id, 10) }

func wrap(id int64, err error) error {
	if httpclient.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrReviewNotFound, id, err)
	}
	return fmt.Errorf("review %d: %w", id, err)
}
