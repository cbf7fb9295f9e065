package activitylog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

type Entry struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	UserID    *int64    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Params struct {
	Level string `validate:"omitempty,oneof=debug info warn error"`
	Page  int    `validate:"gte=0"`
	Limit int    `validate:"gte=0,lte=200"`
}

type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

// List returns backend activity logs, newest first (admin only).
func (s *Service) List(ctx context.Context, params Params) ([]Entry, *httpclient.Pagination, error) {
	if err := validation.Struct(params); err != nil {
		return nil, nil, err
	}
	q := url.Values{}
	if params.Level != "" {
		q.Set("level", params.Level)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	var entries []Entry
	env, err := s.api.Get(ctx, "/admin/logs", q, &entries)
	if err != nil {
		return nil, nil, fmt.Errorf("list logs: %w", err)
	}
	return entries, env.Pagination, nil
}
