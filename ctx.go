package adminauth

import (
	"context"

	"github.com/google/uuid"
)

// AuthContext is the authenticated identity produced by the validation
// cascade. It is threaded explicitly as a parameter through downstream
// handlers; nothing in this package stashes it in ambient request state.
type AuthContext struct {
	Admin     *Admin
	SessionID uuid.UUID
}

// AdminID returns the authenticated admin's id.
func (a *AuthContext) AdminID() uuid.UUID {
	if a == nil || a.Admin == nil {
		return uuid.Nil
	}
	return a.Admin.ID
}

// Role returns the authenticated admin's role.
func (a *AuthContext) Role() AdminRole {
	if a == nil || a.Admin == nil {
		return 0
	}
	return a.Admin.Role
}

// Status returns the authenticated admin's lifecycle status.
func (a *AuthContext) Status() AdminStatus {
	if a == nil || a.Admin == nil {
		return ""
	}
	return a.Admin.Status
}

var authCtxKey = &contextKey{"auth"}

type contextKey struct {
	name string
}

// WithContext sets the AuthContext in the given context
func WithContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, auth)
}

// FromContext finds the AuthContext from the context.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	raw, ok := ctx.Value(authCtxKey).(*AuthContext)
	return raw, ok
}
