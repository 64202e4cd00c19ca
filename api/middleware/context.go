package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/pkg/outbox"
)

type contextKey string

const (
	ctxMemberID contextKey = "member_id"
	ctxRole     contextKey = "actor_role"
	ctxAccessID contextKey = "access_id"
)

func MemberIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxMemberID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

// AccessIDFromContext returns the session id (JWT jti) of the caller.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// ActorFromContext describes the authenticated caller for event payloads, or
// nil for anonymous requests.
func ActorFromContext(ctx context.Context) *outbox.ActorRef {
	id, err := uuid.Parse(MemberIDFromContext(ctx))
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{MemberID: id, Role: RoleFromContext(ctx)}
}

// WithMember injects the member identity into the context.
func WithMember(ctx context.Context, memberID, role, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxMemberID, memberID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxAccessID, accessID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
