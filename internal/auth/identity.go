package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by the rest of the service.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Identity extracts the caller identity from validated claims. The subject
// must be a UUID; tokens without one carry no usable identity.
func (c Claims) Identity() (Identity, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrIdentityNotInToken
	}
	return Identity{UserID: userID, Email: c.Email}, nil
}

type identityCtxKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity set by the middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}
