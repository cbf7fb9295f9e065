package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/validation"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is an account as the backend reports it.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate changes the caller's own profile. Nil fields are left alone.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// AdminUpdate changes any account. Nil fields are left alone.
type AdminUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=admin customer"`
}

// Service wraps the auth and admin user endpoints.
type Service struct {
	api httpclient.API
}

func NewService(api httpclient.API) *Service {
	return &Service{api: api}
}

// Login exchanges credentials for a token. A 401 becomes ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	var res AuthResult
	if err := s.api.Post(ctx, "/auth/login", creds, &res); err != nil {
		if httpclient.StatusCode(err) == 401 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	return &res, nil
}

func (s *Service) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(reg.Password); err != nil {
		return nil, err
	}
	var res AuthResult
	if err := s.api.Post(ctx, "/auth/register", reg, &res); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &res, nil
}

// Profile returns the account behind the current token.
func (s *Service) Profile(ctx context.Context) (*User, error) {
	var u User
	if _, err := s.api.Get(ctx, "/auth/profile", nil, &u); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.api.Put(ctx, "/auth/profile", in, &u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}

// List pages through all accounts (admin). An empty role lists everyone.
func (s *Service) List(ctx context.Context, role string, page, limit int) ([]User, *httpclient.Pagination, error) {
	q := url.Values{}
	if role != "" {
		q.Set("role", role)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var users []User
	env, err := s.api.Get(ctx, "/admin/users", q, &users)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	return users, env.Pagination, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	if _, err := s.api.Get(ctx, adminPath(id), nil, &u); err != nil {
		return nil, wrap(id, err)
	}
	return &u, nil
}

func (s *Service) Update(ctx context.Context, id int64, in AdminUpdate) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.api.Put(ctx, adminPath(id), in, &u); err != nil {
		return nil, wrap(id, err)
	}
	return &u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, adminPath(id), nil); err != nil {
		return wrap(id, err)
	}
	return nil
}

func adminPath(id int64) string { return "/admin/users/" + strconv.FormatInt(id, 10) }

func wrap(id int64, err error) error {
	if httpclient.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrUserNotFound, id, err)
	}
	return fmt.Errorf("user %d: %w", id, err)
}
