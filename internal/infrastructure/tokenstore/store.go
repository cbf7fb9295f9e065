package tokenstore

import (
	"context"
	"errors"
)

// DefaultKey is the key the session token is stored under.
const DefaultKey = "storefront_token"

// ErrNotFound is returned by Load when no token is stored.
var ErrNotFound = errors.New("token not found")

// Store persists the single session token.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
