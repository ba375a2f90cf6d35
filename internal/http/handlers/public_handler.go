package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/order-notifier/internal/chatimage"
	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/repo"
	"github.com/tbourn/order-notifier/internal/services"
)

// RedirectShortLink godoc
// @ID          redirectShortLink
// @Summary     Follow a short link
// @Description Redirects (302) to the link target. Unknown, malformed and expired codes return 404.
// @Tags        Links
//
// @Param       code  path  string  true  "Short code"  example(a7Bc9xZ)
//
// @Success     302  {string} string "Found"
// @Failure     404  {object} handlers.ErrorResponse "Short link not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /s/{code} [get]
func (h *Handlers) RedirectShortLink(c *gin.Context) {
	code := c.Param("code")

	if h.resolved != nil {
		if v, found := h.resolved.Get(code); found {
			if l := v.(*domain.ShortLink); !l.Expired(time.Now()) {
				c.Redirect(http.StatusFound, l.TargetURL)
				return
			}
			h.resolved.Delete(code)
		}
	}

	l, err := h.links.Resolve(c.Request.Context(), code)
	if errors.Is(err, services.ErrShortLinkNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "short link not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if h.resolved != nil {
		h.resolved.SetDefault(code, l)
	}
	c.Redirect(http.StatusFound, l.TargetURL)
}

// ChatImage godoc
// @ID          chatImage
// @Summary     Serve a customer chat image
// @Description Decodes the index-th image embedded in a stored chat message. Messaging
// @Description platforms fetch these URLs when delivering image attachments.
// @Tags        Assets
// @Produce     image/jpeg
// @Produce     image/png
//
// @Param       messageId  path  string  true  "Chat message ID"
// @Param       index      path  int     true  "Zero-based image index"  minimum(0)
//
// @Success     200  {file}   binary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Image not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /assets/chat-images/{messageId}/{index} [get]
func (h *Handlers) ChatImage(c *gin.Context) {
	id := c.Param("messageId")
	if !domain.ValidID(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid message id")
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "index must be a non-negative integer")
		return
	}

	m, err := repo.GetChatMessage(c.Request.Context(), h.db, id)
	if errors.Is(err, repo.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	imgs := chatimage.Extract(m.Content)
	if idx >= len(imgs) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	raw, mime, err := chatimage.Decode(imgs[idx])
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, mime, raw)
}
