package types

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AuthContext identifies the caller of a workspace operation. Every core
// operation receives one and passes it to the workspace Authorizer.
type AuthContext struct {
	UserID    int64  `json:"user_id"`
	RequestID string `json:"request_id"`
}

// NewAuthContext returns an AuthContext for userID with a fresh UUID v7
// request id.
func NewAuthContext(userID int64) AuthContext {
	return AuthContext{UserID: userID, RequestID: newRequestID()}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Authorizer decides whether a caller may act on a collection. A
// collectionID of zero asks about workspace-wide operations such as listing
// or creating collections. Implementations return an error wrapping
// ErrForbidden to deny.
type Authorizer interface {
	Authorize(ctx context.Context, auth AuthContext, collectionID int64) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, auth AuthContext, collectionID int64) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, auth AuthContext, collectionID int64) error {
	return f(ctx, auth, collectionID)
}

// AllowAll grants every request. It is the default Authorizer.
type AllowAll struct{}

// Authorize always returns nil.
func (AllowAll) Authorize(context.Context, AuthContext, int64) error { return nil }

// Forbidden builds the error an Authorizer returns to deny auth access to
// collectionID.
func Forbidden(auth AuthContext, collectionID int64) error {
	return fmt.Errorf("%w: user %d on collection %d", ErrForbidden, auth.UserID, collectionID)
}
