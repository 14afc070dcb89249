package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/actorctx"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/http/handlers"
)

// SessionResolver is the part of auth.Manager the middleware needs. Keep it
// small so tests can fake it easily.
type SessionResolver interface {
	Identify(ctx context.Context, token string) (*auth.Identity, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
	log      *slog.Logger
}

func NewAuthMiddleware(sessions SessionResolver, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{sessions: sessions, log: log}
}

// Identify attaches the caller to the request context. It never rejects: a
// missing, invalid, expired or revoked token just means an anonymous caller,
// and the procedure gates decide what that caller may do.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := actorctx.WithAcceptLanguage(c.Request.Context(), c.GetHeader("Accept-Language"))
		caller := auth.Anonymous()

		if token := tokenFrom(c); token != "" {
			id, err := m.sessions.Identify(ctx, token)
			switch {
			case err == nil:
				caller = auth.As(*id)
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked):
			default:
				// revocation store unreachable: do not honour the token
				m.log.WarnContext(ctx, "session lookup failed", "err", err, "request_id", c.GetString(CtxRequestID))
			}
		}

		c.Request = c.Request.WithContext(actorctx.WithCaller(ctx, caller))
		c.Next()
	}
}

// tokenFrom prefers the session cookie over an Authorization bearer token.
func tokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(handlers.SessionCookie); err == nil && v != "" {
		return v
	}

	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
