package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/http/dto"
	"commentary.app/comments/internal/http/middleware"
	"commentary.app/comments/internal/service"
)

type CommentHandler struct {
	comments service.CommentService
	loginURL string
}

func NewCommentHandler(comments service.CommentService, loginURL string) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		loginURL: loginURL,
	}
}

type postCommentRequest struct {
	Target        string `json:"target" binding:"required"`
	TargetType    string `json:"target_type" binding:"required"`
	TargetTitle   string `json:"target_title"`
	TargetURL     string `json:"target_url" binding:"required,url"`
	Body          string `json:"body" binding:"required"`
	ParentID      *int64 `json:"parent_id"`
	WantsFollowup bool   `json:"wants_followup"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	URL           string `json:"url"`
}

// Post submits a comment. Authenticated actors get an immediate 201 with
// the persisted comment; anonymous actors get a 202 and a confirmation
// email.
func (h *CommentHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.Actor(c)

	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: target, target_type, target_url and body are required"})
		return
	}

	if !actor.Authenticated() && (req.Name == "" || req.Email == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required for anonymous comments"})
		return
	}

	outcome, err := h.comments.Post(ctx, service.PostRequest{
		TargetRef:     req.Target,
		TargetType:    req.TargetType,
		TargetTitle:   req.TargetTitle,
		TargetURL:     req.TargetURL,
		Body:          req.Body,
		ParentID:      req.ParentID,
		WantsFollowup: req.WantsFollowup,
		Name:          req.Name,
		Email:         req.Email,
		URL:           req.URL,
	}, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "only registered users may comment on this content"})
		case errors.Is(err, service.ErrThreadDepthExceeded):
			c.JSON(http.StatusForbidden, gin.H{"error": "maximum thread depth exceeded"})
		case errors.Is(err, service.ErrFeatureDisabled), errors.Is(err, service.ErrTargetNotFound), errors.Is(err, service.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "comments are not available here"})
		default:
			slog.ErrorContext(ctx, "failed to post comment", "error", err, "target", req.Target)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post comment"})
		}
		return
	}

	switch {
	case outcome.ConfirmationSent:
		c.JSON(http.StatusAccepted, gin.H{"status": "confirmation sent"})
	case outcome.Discarded:
		c.JSON(http.StatusOK, gin.H{"status": "comment discarded"})
	case outcome.Comment != nil:
		c.JSON(http.StatusCreated, dto.ToCommentResponse(outcome.Comment))
	default:
		slog.ErrorContext(ctx, "post outcome carries no comment", "target", req.Target)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post comment"})
	}
}

// Confirm lands the double opt-in link from the confirmation email.
func (h *CommentHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	outcome, err := h.comments.Confirm(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation link has expired"})
		case errors.Is(err, service.ErrBadToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid confirmation link"})
		case errors.Is(err, service.ErrTargetNotFound), errors.Is(err, service.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "the commented content no longer exists"})
		case errors.Is(err, service.ErrThreadDepthExceeded):
			c.JSON(http.StatusForbidden, gin.H{"error": "maximum thread depth exceeded"})
		default:
			slog.ErrorContext(ctx, "failed to confirm comment", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm comment"})
		}
		return
	}

	if outcome.Status == service.ConfirmStatusDiscarded {
		c.JSON(http.StatusOK, gin.H{"status": "comment discarded"})
		return
	}

	// Confirmed and replayed both land on the published comment, so
	// refreshing the confirmation page is harmless.
	c.Redirect(http.StatusFound, commentAnchorURL(outcome.Target.URL, outcome.Comment.ID))
}

// Reply returns the context a reply form needs, or redirects anonymous
// visitors to login when the target type is users-only.
func (h *CommentHandler) Reply(c *gin.Context) {
	ctx := c.Request.Context()

	commentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	rc, err := h.comments.Reply(ctx, commentID, middleware.Actor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthRequired):
			c.Redirect(http.StatusFound, h.loginURL)
		case errors.Is(err, service.ErrThreadDepthExceeded):
			c.JSON(http.StatusForbidden, gin.H{"error": "maximum thread depth exceeded"})
		case errors.Is(err, service.ErrCommentNotFound), errors.Is(err, service.ErrFeatureDisabled):
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		default:
			slog.ErrorContext(ctx, "failed to build reply context", "error", err, "comment_id", commentID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reply context"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parent":     dto.ToCommentResponse(rc.Parent),
		"target_url": rc.Target.URL,
	})
}

// List returns the target's public comments in thread order.
func (h *CommentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	targetRef, ok := requireTargetParam(c)
	if !ok {
		return
	}

	comments, err := h.comments.List(ctx, targetRef)
	if err != nil {
		h.listError(c, err, targetRef)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentResponses(comments)})
}

// Tree returns the target's comments nested by reply structure.
func (h *CommentHandler) Tree(c *gin.Context) {
	ctx := c.Request.Context()

	targetRef, ok := requireTargetParam(c)
	if !ok {
		return
	}

	tree, err := h.comments.Tree(ctx, targetRef)
	if err != nil {
		h.listError(c, err, targetRef)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentTree(tree)})
}

// Count returns the number of published comments on a target.
func (h *CommentHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	targetRef, ok := requireTargetParam(c)
	if !ok {
		return
	}

	count, err := h.comments.Count(ctx, targetRef)
	if err != nil {
		h.listError(c, err, targetRef)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *CommentHandler) listError(c *gin.Context, err error, targetRef string) {
	if errors.Is(err, service.ErrTargetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		return
	}
	slog.ErrorContext(c.Request.Context(), "failed to read comments", "error", err, "target", targetRef)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read comments"})
}
