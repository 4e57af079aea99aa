package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ccournoyer/firesale-backend/internal/domain"
)

type sessionKey struct{}

// Session is the explicit per-request identity: account id and role from the
// verified token. Core operations take the account id from here rather than
// any process-wide state.
type Session struct {
	AccountID uuid.UUID
	Role      domain.Role
}

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
