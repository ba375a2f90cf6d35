// Package handlers implements the notifier's HTTP endpoints:
//
//   - POST /orders/{id}/notify        (new-order notification)
//   - POST /channels/{id}/test        (test message)
//   - POST /channels/{id}/summary     (order summary for a window)
//   - GET  /notification-logs         (audit log, paginated, ETag)
//   - GET  /s/{code}                  (short-link redirect)
//   - GET  /assets/chat-images/{messageId}/{index}
//
// Handlers are transport-thin: they validate input, call the delivery
// engine, and translate DeliveryResult values into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/services"
	"github.com/tbourn/order-notifier/internal/utils"
)

// Notifier is the delivery engine as seen by the HTTP layer.
type Notifier interface {
	SendNewOrder(ctx context.Context, orderID string) (services.DeliveryResult, error)
	SendOrderSummaryByID(ctx context.Context, channelID string, w services.SummaryWindow) (services.DeliveryResult, error)
	TestChannel(ctx context.Context, channelID, text string) (services.DeliveryResult, error)
}

// LinkResolver resolves short codes to live links.
type LinkResolver interface {
	Resolve(ctx context.Context, code string) (*domain.ShortLink, error)
}

// Handlers groups the HTTP endpoints. DB backs the read-only endpoints
// (audit log and chat images).
type Handlers struct {
	notifier Notifier
	links    LinkResolver
	db       *gorm.DB
	resolved *cache.Cache
}

// New wires the handlers. Resolved short links are cached for linkTTL; a
// non-positive linkTTL disables the cache.
func New(notifier Notifier, links LinkResolver, db *gorm.DB, linkTTL time.Duration) *Handlers {
	h := &Handlers{notifier: notifier, links: links, db: db}
	if linkTTL > 0 {
		h.resolved = cache.New(linkTTL, 2*linkTTL)
	}
	return h
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page and page_size with defaults 1 and 20 and a
// page size ceiling of 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.Page(c.Query("page"), c.Query("page_size"), 20, 100)
}

// writeDelivery maps an engine outcome to HTTP:
//
//	success                          -> 200 with the result
//	ErrInvalidID                     -> 400
//	ORDER_NOT_FOUND/CHANNEL_NOT_FOUND -> 404
//	other validation codes           -> 422
//	delivery error                   -> 502 delivery_failed
//	storage error                    -> 500
func writeDelivery(c *gin.Context, res services.DeliveryResult, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid id")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	case res.Success:
		ok(c, http.StatusOK, res)
		return
	}

	if msg, known := resultMessages[res.Error]; known {
		status := http.StatusUnprocessableEntity
		if res.Error == services.CodeOrderNotFound || res.Error == services.CodeChannelNotFound {
			status = http.StatusNotFound
		}
		fail(c, status, string(res.Error), msg)
		return
	}
	fail(c, http.StatusBadGateway, ErrCodeDeliveryFailed, string(res.Error))
}

var resultMessages = map[services.ErrorCode]string{
	services.CodeOrderNotFound:        "order not found",
	services.CodeChannelNotFound:      "channel not found",
	services.CodeChannelInactive:      "channel is inactive",
	services.CodeChannelMisconfigured: "channel sender bot or target group is misconfigured",
	services.CodeInvalidWindow:        "window end must be after window start",
	services.CodeNoSources:            "channel has no usable order sources",
}
