package middleware

import (
	"context"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated back-office user behind a request.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type actorKey struct{}

// WithActor attaches the actor Auth resolved from the access token.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.UserID != uuid.Nil
}

// UserIDFromContext returns uuid.Nil on anonymous requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	actor, _ := ActorFromContext(ctx)
	return actor.UserID
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	actor, _ := ActorFromContext(ctx)
	return actor.Role
}
