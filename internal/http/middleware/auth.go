package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/events"
	"odras.app/odras/internal/store"
)

type contextKey string

const actorContextKey contextKey = "actor"

// OptionalAuth resolves a bearer token to a user and attaches the actor to
// the request context. It never aborts: unauthenticated requests proceed,
// they just produce no capture events.
func OptionalAuth(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		user, err := users.GetByToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		actor := events.Actor{UserID: user.ID, Username: user.Username}
		ctx := context.WithValue(c.Request.Context(), actorContextKey, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, if any.
func ActorFrom(ctx context.Context) (events.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(events.Actor)
	return actor, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
