package identity

import (
	"context"

	"timebank-go/internal/domain/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated caller of a domain operation.
type Principal struct {
	ID   int64
	Role Role
}

// System acts for scheduled jobs such as the cleanup command. It has admin
// rights but no user row.
var System = Principal{ID: 0, Role: RoleAdmin}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Valid() bool {
	return p.ID > 0 && (p.Role == RoleUser || p.Role == RoleAdmin)
}

// ActorID is the id recorded on audit rows; nil for System.
func (p Principal) ActorID() *int64 {
	if p.ID <= 0 {
		return nil
	}
	id := p.ID
	return &id
}

// RequireAdmin is re-checked by privileged service methods even though the
// router already restricts admin routes.
func (p Principal) RequireAdmin() error {
	if !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleUser, RoleAdmin:
		return Role(value), true
	}
	return "", false
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok || !p.Valid() {
		return Principal{}, false
	}
	return p, true
}
