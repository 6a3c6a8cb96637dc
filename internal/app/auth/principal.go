// Package auth holds the request principal, password hashing and session tokens.
package auth

import (
	"context"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// Principal is the identity acting on a request. The zero value is an anonymous visitor.
type Principal struct {
	UserID int64
	Login  string
	Role   models.Role
}

// Anonymous is the principal of requests without a valid session.
var Anonymous = Principal{}

// PrincipalFromUser builds a principal for a stored user.
func PrincipalFromUser(u models.User) Principal {
	return Principal{UserID: u.ID, Login: u.Login, Role: u.Role}
}

// IsAuthenticated reports whether the principal is a logged in user.
func (p Principal) IsAuthenticated() bool {
	return p.UserID != 0
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.IsAuthenticated() && p.Role == models.RoleAdmin
}

// OwnerID is the user id new URLs are recorded under. Anonymous visitors map to the system user.
func (p Principal) OwnerID() int64 {
	if !p.IsAuthenticated() {
		return models.SystemUserID
	}
	return p.UserID
}

// CanDeleteURL returns models.ErrForbidden unless the principal owns u or is an admin.
func (p Principal) CanDeleteURL(u models.URL) error {
	if p.IsAdmin() {
		return nil
	}
	if p.IsAuthenticated() && p.UserID == u.UserID {
		return nil
	}
	return models.ErrForbidden
}

// CanDeleteUser returns models.ErrForbidden unless the principal is an admin and target is not.
func (p Principal) CanDeleteUser(target models.User) error {
	if !p.IsAdmin() || target.Role == models.RoleAdmin {
		return models.ErrForbidden
	}
	return nil
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Anonymous
}
