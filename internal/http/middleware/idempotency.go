// Package middleware contains the Gin middleware of the notifier's admin API.
//
// This file implements Idempotency-Key support for delivery endpoints. A
// notification that already went out must not be pushed again because an
// admin double-clicked or a proxy retried. The middleware:
//
//   - validates the key (absent key: no-op);
//   - scopes it to (actor, request path) so the same key on different
//     orders or channels never collides;
//   - replays a stored 2xx response with Idempotency-Replayed: true and
//     stops the chain;
//   - otherwise captures the handler's response and stores it when the
//     status is 2xx, so failed deliveries stay retryable.
//
// Persistence is injected through IdempotencyLookup and IdempotencySave.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed marks a response served from the store.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const ctxKeyIdemKey = "idem.key"

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts key characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns a stored, unexpired response for the scope.
type IdempotencyLookup func(ctx context.Context, actor, resource, key string, now time.Time) (status int, body string, found bool, err error)

// IdempotencySave persists a completed response for the scope.
type IdempotencySave func(ctx context.Context, actor, resource, key string, status int, body string) error

// GetIdempotencyKey returns the validated key stashed by Idempotency.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyResource is the scope a key applies to: the request path, e.g.
// /api/v1/orders/665f.../notify.
func IdempotencyResource(c *gin.Context) string {
	return c.Request.URL.Path
}

// Idempotency applies the key protocol to POST requests. Lookup and save
// errors are logged and never fail the request.
func Idempotency(opts IdempotencyOptions, lookup IdempotencyLookup, save IdempotencySave) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		ctx := c.Request.Context()
		actor, resource := ActorFrom(c), IdempotencyResource(c)

		if lookup != nil {
			status, body, found, err := lookup(ctx, actor, resource, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup")
			}
			if found {
				c.Header(HeaderIdempotencyReplayed, "true")
				c.Data(status, "application/json; charset=utf-8", []byte(body))
				c.Abort()
				return
			}
		}

		rec := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if save == nil || status < 200 || status >= 300 {
			return
		}
		if err := save(context.WithoutCancel(ctx), actor, resource, key, status, rec.body.String()); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency save")
		}
	}
}

// capturingWriter tees the response body so it can be stored for replay.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
