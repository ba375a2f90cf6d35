// Package httpapi wires the HTTP transport (Gin) to the notification engine,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Routes:
//   - GET  /health, GET /metrics, GET /swagger/*any (when enabled)
//   - GET  /s/:code                                 short-link redirect
//   - GET  /assets/chat-images/:messageId/:index    chat image passthrough
//   - POST {api}/orders/:id/notify
//   - POST {api}/channels/:id/test
//   - POST {api}/channels/:id/summary
//   - GET  {api}/notification-logs
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/order-notifier/docs"
	"github.com/tbourn/order-notifier/internal/config"
	"github.com/tbourn/order-notifier/internal/http/handlers"
	"github.com/tbourn/order-notifier/internal/http/middleware"
	"github.com/tbourn/order-notifier/internal/repo"
)

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	DB       *gorm.DB
	Notifier handlers.Notifier
	Links    handlers.LinkResolver
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID + Actor: correlation id and admin identity
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per actor/IP)
//  8. CORS, security headers, gzip
//
// Idempotency is mounted on the API group only, so replays skip the engine
// but still count against the rate limit.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID(), middleware.Actor())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Line-Signature", "X-Telegram-Bot-Api-Secret-Token"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, 10*time.Minute, middleware.KeyByActorOrIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))
	// Images are already compressed.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/assets/`})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Notifier, deps.Links, deps.DB, cfg.ShortLink.CacheTTL)

	r.GET("/s/:code", h.RedirectShortLink)
	r.GET("/assets/chat-images/:messageId/:index", h.ChatImage)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Idempotency(
		middleware.IdempotencyOptions{MaxLen: 200},
		idempotencyLookup(deps.DB),
		idempotencySave(deps.DB, cfg.IdempotencyTTL),
	))
	{
		api.POST("/orders/:id/notify", h.NotifyOrder)
		api.POST("/channels/:id/test", h.TestChannel)
		api.POST("/channels/:id/summary", h.SendSummary)
		api.GET("/notification-logs", h.ListNotificationLogs)
	}
}

func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, actor, resource, key string, now time.Time) (int, string, bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, actor, resource, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return 0, "", false, nil
		}
		if err != nil {
			return 0, "", false, err
		}
		return rec.Status, rec.Response, true, nil
	}
}

func idempotencySave(db *gorm.DB, ttl time.Duration) middleware.IdempotencySave {
	return func(ctx context.Context, actor, resource, key string, status int, body string) error {
		_, err := repo.CreateIdempotency(ctx, db, actor, resource, key, status, body, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	}
}

// corsMiddleware allows every origin when none are configured and echoes
// allowlisted origins otherwise.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderActorID, middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(conf),
		}
	}

	conf.AllowOrigins = origins
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(conf),
	}
}

// limitBody caps the request body size using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
