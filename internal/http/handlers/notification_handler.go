package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/order-notifier/internal/services"
)

// TestChannelRequest is the optional payload of a test send.
type TestChannelRequest struct {
	// Text replaces the default timestamped test message.
	Text string `json:"text" binding:"max=3900" example:"ทดสอบระบบแจ้งเตือน"`
}

// SummaryRequest selects the extraction window [windowStart, windowEnd).
type SummaryRequest struct {
	WindowStart time.Time `json:"windowStart" binding:"required" example:"2025-05-01T00:00:00+07:00"`
	WindowEnd   time.Time `json:"windowEnd"   binding:"required" example:"2025-05-01T12:00:00+07:00"`
}

// NotifyOrder godoc
// @ID          notifyOrder
// @Summary     Send the new-order notification
// @Description Notifies every eligible channel about the order. Channels fail independently;
// @Description sentCount is the number of channels that accepted the notification.
// @Description Supports Idempotency-Key: a repeated key replays the first successful response.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-Actor-ID       header  string  false "Admin identity"  example(ops-1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Order ID"  example(665f1c2ab9e0a1b2c3d4e5f6)
//
// @Success     200  {object}  services.DeliveryResult
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/notify [post]
func (h *Handlers) NotifyOrder(c *gin.Context) {
	res, err := h.notifier.SendNewOrder(c.Request.Context(), c.Param("id"))
	writeDelivery(c, res, err)
}

// TestChannel godoc
// @ID          testChannel
// @Summary     Send a test message to a channel
// @Description Sends one text message through the channel's sender bot. The body is optional.
// @Tags        Notifications
// @Accept      json
// @Produce     json
//
// @Param       X-Actor-ID  header  string  false "Admin identity"  example(ops-1)
// @Param       id          path    string  true  "Channel ID"
// @Param       body        body    handlers.TestChannelRequest  false  "Custom text"
//
// @Success     200  {object}  services.DeliveryResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Channel not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Channel misconfigured"
// @Failure     502  {object}  handlers.ErrorResponse  "Delivery failed"
// @Router      /channels/{id}/test [post]
func (h *Handlers) TestChannel(c *gin.Context) {
	var req TestChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.notifier.TestChannel(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Text))
	writeDelivery(c, res, err)
}

// SendSummary godoc
// @ID          sendSummary
// @Summary     Send an order summary to a channel
// @Description Summarizes orders extracted in [windowStart, windowEnd), deduplicated per customer
// @Description and total. sentCount is the number of text messages; orderCount counts orders
// @Description before deduplication.
// @Tags        Notifications
// @Accept      json
// @Produce     json
//
// @Param       X-Actor-ID       header  string  false "Admin identity"  example(ops-1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Channel ID"
// @Param       body             body    handlers.SummaryRequest  true  "Window (RFC 3339)"
//
// @Success     200  {object}  services.DeliveryResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Channel not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Inactive, misconfigured, invalid window or no sources"
// @Failure     502  {object}  handlers.ErrorResponse  "Delivery failed"
// @Router      /channels/{id}/summary [post]
func (h *Handlers) SendSummary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "windowStart and windowEnd are required (RFC 3339)")
		return
	}
	w := services.SummaryWindow{Start: req.WindowStart, End: req.WindowEnd}
	res, err := h.notifier.SendOrderSummaryByID(c.Request.Context(), c.Param("id"), w)
	writeDelivery(c, res, err)
}
