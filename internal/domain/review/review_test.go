package review

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/testutil/backend"
	"github.com/example/ec-storefront/internal/validation"
)

func TestService_CustomerLifecycle(t *testing.T) {
	b := backend.New(t)
	_, token := b.SeedCustomer("c@example.com")
	productID := b.SeedProduct("Lamp", "10", 1)
	svc := NewService(b.Client(token))
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{ProductID: productID, Rating: 4, Comment: "bright"})
	require.NoError(t, err)
	assert.Equal(t, "Customer", created.UserName)

	_, err = svc.Update(ctx, created.ID, Input{ProductID: productID, Rating: 5, Comment: "very bright"})
	require.NoError(t, err)

	reviews, err := svc.ListForProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrReviewNotFound)
}

func TestService_CannotEditOthersReview(t *testing.T) {
	b := backend.New(t)
	_, alice := b.SeedCustomer("alice@example.com")
	_, bob := b.SeedCustomer("bob@example.com")
	productID := b.SeedProduct("Lamp", "10", 1)

	created, err := NewService(b.Client(alice)).Create(context.Background(), Input{ProductID: productID, Rating: 3})
	require.NoError(t, err)

	err = NewService(b.Client(bob)).Delete(context.Background(), created.ID)

	assert.Equal(t, http.StatusForbidden, httpclient.StatusCode(err))
}

func TestService_Validation(t *testing.T) {
	b := backend.New(t)
	svc := NewService(b.Client(""))

	_, err := svc.Create(context.Background(), Input{ProductID: 1, Rating: 6})

	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Empty(t, b.Calls())
}

func TestService_Admin(t *testing.T) {
	b := backend.New(t)
	_, customer := b.SeedCustomer("c@example.com")
	_, admin := b.SeedAdmin()
	productID := b.SeedProduct("Lamp", "10", 1)
	created, err := NewService(b.Client(customer)).Create(context.Background(), Input{ProductID: productID, Rating: 1, Comment: "spam"})
	require.NoError(t, err)
	svc := NewService(b.Client(admin))

	reviews, page, err := svc.AdminList(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, svc.AdminDelete(context.Background(), created.ID))
	reviews, _, err = svc.AdminList(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 3.5, AverageRating([]Review{{Rating: 3}, {Rating: 4}}))
}
