package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/repo"
	"github.com/tbourn/order-notifier/internal/utils"
)

// ListLogsResponse wraps a page of audit entries and pagination information.
type ListLogsResponse struct {
	Logs       []domain.NotificationLog `json:"logs"`
	Pagination Pagination               `json:"pagination"`
}

// ListNotificationLogs godoc
// @ID          listNotificationLogs
// @Summary     List delivery audit entries (paginated)
// @Description Returns audit entries newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Notifications
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       channel_id     query   string  false "Filter by channel"
// @Param       order_id       query   string  false "Filter by order"
// @Param       event_type     query   string  false "new_order | order_summary | test"
// @Param       status         query   string  false "success | failed"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListLogsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notification-logs [get]
func (h *Handlers) ListNotificationLogs(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := logFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	page, pageSize := clampPagination(c)

	count, newest, err := repo.NotificationLogsStats(ctx, h.db, f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"logs:%s:%d:%d:%d:%d"`, filterDigest(f), page, pageSize, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, err := repo.ListNotificationLogsPage(ctx, h.db, f, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.NotificationLog{}
	}
	ok(c, http.StatusOK, ListLogsResponse{Logs: items, Pagination: newPagination(page, pageSize, count)})
}

// filterDigest keeps caller-supplied filter values out of the ETag header.
func filterDigest(f repo.LogFilter) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		f.ChannelID, f.OrderID, string(f.EventType), string(f.Status),
	}, "\x00")))
	return hex.EncodeToString(sum[:8])
}

func logFilter(c *gin.Context) (repo.LogFilter, error) {
	f := repo.LogFilter{
		ChannelID: strings.TrimSpace(c.Query("channel_id")),
		OrderID:   strings.TrimSpace(c.Query("order_id")),
		EventType: domain.EventType(strings.TrimSpace(c.Query("event_type"))),
		Status:    domain.DeliveryStatus(strings.TrimSpace(c.Query("status"))),
	}
	switch f.EventType {
	case "", domain.EventNewOrder, domain.EventOrderSummary, domain.EventTest:
	default:
		return f, fmt.Errorf("unknown event_type %q", f.EventType)
	}
	switch f.Status {
	case "", domain.StatusSuccess, domain.StatusFailed:
	default:
		return f, fmt.Errorf("unknown status %q", f.Status)
	}
	return f, nil
}
