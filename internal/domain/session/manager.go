package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/infrastructure/tokenstore"
)

var (
	// ErrTokenExpired marks a stored token the backend will not accept. The
	// manager handles it by logging out; callers never receive it.
	ErrTokenExpired     = errors.New("session token expired")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Accounts is the part of the user API a session needs.
type Accounts interface {
	Login(ctx context.Context, creds user.Credentials) (*user.AuthResult, error)
	Register(ctx context.Context, reg user.Registration) (*user.AuthResult, error)
	Profile(ctx context.Context) (*user.User, error)
	UpdateProfile(ctx context.Context, in user.ProfileUpdate) (*user.User, error)
}

// Manager owns the session state and the persisted token.
type Manager struct {
	mu       sync.RWMutex
	state    State
	accounts Accounts
	tokens   tokenstore.Store
	log      *zap.Logger
	now      func() time.Time
}

func NewManager(accounts Accounts, tokens tokenstore.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		state:    State{Status: StatusUnauthenticated},
		accounts: accounts,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) IsAdmin() bool { return m.State().IsAdmin() }
func (m *Manager) IsCustomer() bool { return m.State().IsCustomer() }
func (m *Manager) HasRole(role string) bool { return m.State().HasRole(role) }
func (m *Manager) Can(p Permission) bool { return m.State().Can(p) }
func (m *Manager) IsAuthenticated() bool { return m.State().IsAuthenticated() }

func (m *Manager) dispatch(a Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, a)
	return m.state
}

// Bootstrap restores a session from the stored token. An expired or rejected
// token is cleared and the session ends up unauthenticated with a nil error.
// Any other failure leaves the token in place and is returned.
func (m *Manager) Bootstrap(ctx context.Context) error {
	token, err := m.tokens.Load(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		m.dispatch(Action{Type: ActionLogout})
		return nil
	}
	if err != nil {
		m.dispatch(Action{Type: ActionAuthFailure, Err: err})
		return fmt.Errorf("load session token: %w", err)
	}

	m.dispatch(Action{Type: ActionAuthStart})
	if err := m.checkToken(token); err != nil {
		m.expire(ctx, err)
		return nil
	}

	u, err := m.accounts.Profile(ctx)
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			m.expire(ctx, fmt.Errorf("%w: %w", ErrTokenExpired, err))
			return nil
		}
		m.dispatch(Action{Type: ActionAuthFailure, Err: err})
		return fmt.Errorf("restore session: %w", err)
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: u})
	m.log.Info("session_restored", zap.Int64("user_id", u.ID), zap.String("role", u.Role))
	return nil
}

func (m *Manager) checkToken(token string) error {
	if err := auth.CheckExpiry(token, m.now()); err != nil {
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}
	return nil
}

func (m *Manager) expire(ctx context.Context, cause error) {
	m.log.Info("session_token_expired", zap.Error(cause))
	if err := m.tokens.Clear(ctx); err != nil {
		m.log.Warn("session_token_clear_failed", zap.Error(err))
	}
	m.dispatch(Action{Type: ActionLogout})
}

func (m *Manager) Login(ctx context.Context, email, password string) (*user.User, error) {
	return m.authenticate(ctx, func() (*user.AuthResult, error) {
		return m.accounts.Login(ctx, user.Credentials{Email: email, Password: password})
	})
}

func (m *Manager) Register(ctx context.Context, reg user.Registration) (*user.User, error) {
	return m.authenticate(ctx, func() (*user.AuthResult, error) {
		return m.accounts.Register(ctx, reg)
	})
}

func (m *Manager) authenticate(ctx context.Context, call func() (*user.AuthResult, error)) (*user.User, error) {
	m.dispatch(Action{Type: ActionAuthStart})
	res, err := call()
	if err != nil {
		m.dispatch(Action{Type: ActionAuthFailure, Err: err})
		return nil, err
	}
	if err := m.tokens.Save(ctx, res.Token); err != nil {
		err = fmt.Errorf("save session token: %w", err)
		m.dispatch(Action{Type: ActionAuthFailure, Err: err})
		return nil, err
	}
	state := m.dispatch(Action{Type: ActionAuthSuccess, User: &res.User})
	m.log.Info("session_started", zap.Int64("user_id", res.User.ID), zap.String("role", res.User.Role))
	u := *state.User
	return &u, nil
}

// Logout always ends the session locally, even if clearing the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.tokens.Clear(ctx)
	m.dispatch(Action{Type: ActionLogout})
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// RefreshProfile re-reads the current user from the backend.
func (m *Manager) RefreshProfile(ctx context.Context) (*user.User, error) {
	if !m.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	u, err := m.accounts.Profile(ctx)
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			m.expire(ctx, err)
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("refresh profile: %w", err)
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: u})
	return u, nil
}

func (m *Manager) UpdateProfile(ctx context.Context, in user.ProfileUpdate) (*user.User, error) {
	if !m.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	u, err := m.accounts.UpdateProfile(ctx, in)
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			m.expire(ctx, err)
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: u})
	return u, nil
}
