package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, userID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(ctxRole).(enums.Role)
	return role
}

// Identity returns the caller or an unauthorized error when Auth did not run.
func Identity(ctx context.Context) (uuid.UUID, enums.Role, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return id, RoleFromContext(ctx), nil
}
