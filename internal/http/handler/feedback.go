package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/http/dto"
	"commentary.app/comments/internal/http/middleware"
	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/service"
)

type FeedbackHandler struct {
	feedback service.FeedbackService
}

func NewFeedbackHandler(feedback service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Opinion serves the confirm-intent page state for a like or dislike, so
// the UI can offer an explicit withdrawal instead of silently toggling.
func (h *FeedbackHandler) Opinion(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	state, err := h.feedback.Opinion(ctx, commentID, middleware.Actor(c))
	if err != nil {
		h.feedbackError(c, err, commentID)
		return
	}

	c.JSON(http.StatusOK, toOpinionResponse(state))
}

// SetOpinion records the like or dislike named by the route.
func (h *FeedbackHandler) SetOpinion(kind model.FlagKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		commentID, ok := parseIDParam(c)
		if !ok {
			return
		}

		state, err := h.feedback.SetOpinion(ctx, commentID, middleware.Actor(c), kind)
		if err != nil {
			h.feedbackError(c, err, commentID)
			return
		}

		c.JSON(http.StatusOK, toOpinionResponse(state))
	}
}

// WithdrawOpinion removes the actor's like or dislike.
func (h *FeedbackHandler) WithdrawOpinion(kind model.FlagKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		commentID, ok := parseIDParam(c)
		if !ok {
			return
		}

		state, err := h.feedback.WithdrawOpinion(ctx, commentID, middleware.Actor(c), kind)
		if err != nil {
			h.feedbackError(c, err, commentID)
			return
		}

		c.JSON(http.StatusOK, toOpinionResponse(state))
	}
}

// FlagIntent confirms the comment exists and flagging is enabled before the
// UI shows its report form.
func (h *FeedbackHandler) FlagIntent(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	comment, err := h.feedback.CanFlag(ctx, commentID)
	if err != nil {
		h.feedbackError(c, err, commentID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": dto.ToCommentResponse(comment)})
}

// Flag records an inappropriate report.
func (h *FeedbackHandler) Flag(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.feedback.Report(ctx, commentID, middleware.Actor(c)); err != nil {
		h.feedbackError(c, err, commentID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "flagged"})
}

// RemoveIntent confirms the comment exists and the actor may remove it,
// before the UI shows its confirmation form.
func (h *FeedbackHandler) RemoveIntent(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if !middleware.Actor(c).IsModerator {
		c.JSON(http.StatusForbidden, gin.H{"error": "moderator capability required"})
		return
	}

	comment, err := h.feedback.CanFlag(ctx, commentID)
	if err != nil {
		h.feedbackError(c, err, commentID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": dto.ToCommentResponse(comment)})
}

// Remove marks a comment removed. Moderators only.
func (h *FeedbackHandler) Remove(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	removed, err := h.feedback.Remove(ctx, commentID, middleware.Actor(c))
	if err != nil {
		h.feedbackError(c, err, commentID)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentResponse(removed))
}

func (h *FeedbackHandler) feedbackError(c *gin.Context, err error, commentID int64) {
	switch {
	case errors.Is(err, service.ErrCommentNotFound), errors.Is(err, service.ErrFeatureDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "moderator capability required"})
	case errors.Is(err, service.ErrAuthRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication required"})
	default:
		slog.ErrorContext(c.Request.Context(), "feedback operation failed", "error", err, "comment_id", commentID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feedback operation failed"})
	}
}

func toOpinionResponse(state *service.OpinionState) dto.OpinionResponse {
	return dto.OpinionResponse{
		Comment:  dto.ToCommentResponse(state.Comment),
		Likes:    state.Likes,
		Dislikes: state.Dislikes,
		Current:  string(state.Current),
	}
}
