package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/service"
)

type MuteHandler struct {
	notify service.NotifyService
}

func NewMuteHandler(notify service.NotifyService) *MuteHandler {
	return &MuteHandler{notify: notify}
}

// Mute lands the opt-out link from a follow-up notification. Muting twice
// is harmless, so the link can live in an inbox forever.
func (h *MuteHandler) Mute(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	target, err := h.notify.Mute(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadToken), errors.Is(err, service.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mute link"})
		case errors.Is(err, service.ErrTargetNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "the commented content no longer exists"})
		default:
			slog.ErrorContext(ctx, "failed to mute thread", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mute notifications"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "muted",
		"target_url": target.URL,
	})
}
