package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/infrastructure/tokenstore"
	"github.com/example/ec-storefront/internal/testutil/backend"
)

// newTestManager wires a manager whose HTTP client reads the same token store.
func newTestManager(t *testing.T) (*Manager, *tokenstore.MemoryStore, *backend.Backend) {
	t.Helper()
	b := backend.New(t)
	tokens := tokenstore.NewMemoryStore()
	client := httpclient.New(b.URL(), httpclient.WithTokenSource(tokens))
	return NewManager(user.NewService(client), tokens, nil), tokens, b
}

type failingStore struct {
	tokenstore.MemoryStore
	loadErr  error
	clearErr error
}

func (f *failingStore) Load(ctx context.Context) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.MemoryStore.Clear(ctx)
}

// ============================================
// Bootstrap
// ============================================

func TestBootstrap_NoToken(t *testing.T) {
	m, _, b := newTestManager(t)

	require.NoError(t, m.Bootstrap(context.Background()))

	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	assert.Empty(t, b.Calls())
}

func TestBootstrap_ValidToken(t *testing.T) {
	m, tokens, b := newTestManager(t)
	id, token := b.SeedCustomer("c@example.com")
	require.NoError(t, tokens.Save(context.Background(), token))

	require.NoError(t, m.Bootstrap(context.Background()))

	s := m.State()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, id, s.User.ID)
	assert.True(t, m.IsCustomer())
}

func TestBootstrap_ExpiredTokenClearsWithoutNetwork(t *testing.T) {
	m, tokens, b := newTestManager(t)
	id := b.SeedUser("Ada", "ada@example.com", "password123", backend.RoleCustomer)
	require.NoError(t, tokens.Save(context.Background(), b.ExpiredTokenFor(id)))

	err := m.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	assert.Nil(t, m.State().Err)
	_, loadErr := tokens.Load(context.Background())
	assert.ErrorIs(t, loadErr, tokenstore.ErrNotFound)
	assert.Empty(t, b.Calls())
}

func TestBootstrap_RejectedTokenClears(t *testing.T) {
	m, tokens, b := newTestManager(t)
	_, token := b.SeedCustomer("c@example.com")
	require.NoError(t, tokens.Save(context.Background(), token))
	b.Fail("GET", "/auth/profile", 401, 1)

	require.NoError(t, m.Bootstrap(context.Background()))

	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	_, loadErr := tokens.Load(context.Background())
	assert.ErrorIs(t, loadErr, tokenstore.ErrNotFound)
}

func TestBootstrap_MalformedTokenClears(t *testing.T) {
	m, tokens, _ := newTestManager(t)
	require.NoError(t, tokens.Save(context.Background(), "garbage"))

	require.NoError(t, m.Bootstrap(context.Background()))

	_, loadErr := tokens.Load(context.Background())
	assert.ErrorIs(t, loadErr, tokenstore.ErrNotFound)
}

func TestBootstrap_ServerErrorKeepsToken(t *testing.T) {
	m, tokens, b := newTestManager(t)
	_, token := b.SeedCustomer("c@example.com")
	require.NoError(t, tokens.Save(context.Background(), token))
	b.Fail("GET", "/auth/profile", 503, 1)

	err := m.Bootstrap(context.Background())

	require.Error(t, err)
	assert.Equal(t, 503, httpclient.StatusCode(err))
	assert.Equal(t, StatusUnauthenticated, m.State().Status)
	kept, loadErr := tokens.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, token, kept)
}

func TestBootstrap_NetworkErrorKeepsToken(t *testing.T) {
	m, tokens, b := newTestManager(t)
	_, token := b.SeedCustomer("c@example.com")
	require.NoError(t, tokens.Save(context.Background(), token))
	b.Close()

	err := m.Bootstrap(context.Background())

	var netErr *httpclient.NetworkError
	assert.ErrorAs(t, err, &netErr)
	kept, _ := tokens.Load(context.Background())
	assert.Equal(t, token, kept)
}

func TestBootstrap_StoreFailure(t *testing.T) {
	store := &failingStore{loadErr: errors.New("disk on fire")}
	m := NewManager(nil, store, nil)

	err := m.Bootstrap(context.Background())

	assert.ErrorContains(t, err, "disk on fire")
	assert.Equal(t, StatusUnauthenticated, m.State().Status)
}

// ============================================
// Login / Register / Logout
// ============================================

func TestLogin_SuccessPersistsToken(t *testing.T) {
	m, tokens, b := newTestManager(t)
	b.SeedUser("Root", "root@example.com", "password123", backend.RoleAdmin)

	u, err := m.Login(context.Background(), "root@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "Root", u.Name)
	assert.True(t, m.IsAdmin())
	assert.True(t, m.Can(ViewLogs))
	token, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// the stored token authenticates follow-up calls
	profile, err := m.RefreshProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.ID)
}

func TestLogin_Failure(t *testing.T) {
	m, tokens, b := newTestManager(t)
	b.SeedUser("Root", "root@example.com", "password123", backend.RoleAdmin)

	_, err := m.Login(context.Background(), "root@example.com", "wrong-password")

	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	s := m.State()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assert.ErrorIs(t, s.Err, user.ErrInvalidCredentials)
	_, loadErr := tokens.Load(context.Background())
	assert.ErrorIs(t, loadErr, tokenstore.ErrNotFound)
}

func TestRegister(t *testing.T) {
	m, _, _ := newTestManager(t)

	u, err := m.Register(context.Background(), user.Registration{Name: "New", Email: "new@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, user.RoleCustomer, u.Role)
	assert.True(t, m.Can(PlaceOrders))
	assert.False(t, m.Can(ManageUsers))
}

func TestLogout(t *testing.T) {
	m, tokens, b := newTestManager(t)
	b.SeedUser("Ada", "ada@example.com", "password123", backend.RoleCustomer)
	_, err := m.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))

	assert.False(t, m.IsAuthenticated())
	_, loadErr := tokens.Load(context.Background())
	assert.ErrorIs(t, loadErr, tokenstore.ErrNotFound)
}

func TestLogout_StoreFailureStillLogsOut(t *testing.T) {
	store := &failingStore{clearErr: errors.New("read-only")}
	m := NewManager(nil, store, nil)
	m.state = State{Status: StatusAuthenticated, User: &user.User{ID: 1}}

	err := m.Logout(context.Background())

	assert.Error(t, err)
	assert.False(t, m.IsAuthenticated())
}

// ============================================
// Profile
// ============================================

func TestProfileOperationsRequireSession(t *testing.T) {
	m, _, b := newTestManager(t)

	_, err := m.RefreshProfile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = m.UpdateProfile(context.Background(), user.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Empty(t, b.Calls())
}

func TestUpdateProfile(t *testing.T) {
	m, _, b := newTestManager(t)
	b.SeedUser("Ada", "ada@example.com", "password123", backend.RoleCustomer)
	_, err := m.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)

	name := "Ada L."
	u, err := m.UpdateProfile(context.Background(), user.ProfileUpdate{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)
	assert.Equal(t, "Ada L.", m.State().User.Name)
}

func TestRefreshProfile_RejectedTokenLogsOut(t *testing.T) {
	m, _, b := newTestManager(t)
	b.SeedUser("Ada", "ada@example.com", "password123", backend.RoleCustomer)
	_, err := m.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)
	b.Fail("GET", "/auth/profile", 401, 1)

	_, err = m.RefreshProfile(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, m.IsAuthenticated())
}
