package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderActorID names the admin who triggered a request. It scopes
// idempotency records and rate-limit buckets.
const HeaderActorID = "X-Actor-ID"

const (
	ctxKeyActor   = "actorID"
	defaultActor  = "admin"
	maxActorBytes = 128
)

// Actor stores the trimmed X-Actor-ID header in the Gin context. Oversized
// values are ignored.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a := strings.TrimSpace(c.GetHeader(HeaderActorID)); a != "" && len(a) <= maxActorBytes {
			c.Set(ctxKeyActor, a)
		}
		c.Next()
	}
}

// ActorFrom returns the request actor, or "admin" when none was supplied.
func ActorFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyActor); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultActor
}
