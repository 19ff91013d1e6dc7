package service

import (
	"context"
	"log/slog"

	"commentary.app/comments/internal/model"
)

// WillPostHook runs before a comment is persisted. Returning false vetoes
// the comment: it is discarded without error and nothing is stored.
type WillPostHook func(ctx context.Context, c *model.Comment, target *model.Target) bool

// PostedHook runs after a comment has been persisted and committed. Hooks
// run in registration order; a hook cannot undo the comment.
type PostedHook func(ctx context.Context, c *model.Comment, target *model.Target)

// Hooks holds the ordered handler lists invoked around comment persistence.
// Registration is expected to happen during startup, before requests flow.
type Hooks struct {
	willPost []WillPostHook
	posted   []PostedHook
}

func NewHooks() *Hooks {
	return &Hooks{}
}

func (h *Hooks) OnWillPost(fn WillPostHook) {
	h.willPost = append(h.willPost, fn)
}

func (h *Hooks) OnPosted(fn PostedHook) {
	h.posted = append(h.posted, fn)
}

// RunWillPost invokes the will-post hooks in order. The first veto wins and
// later hooks are not consulted.
func (h *Hooks) RunWillPost(ctx context.Context, c *model.Comment, target *model.Target) bool {
	for i, fn := range h.willPost {
		if !fn(ctx, c, target) {
			slog.InfoContext(ctx, "comment vetoed by will-post hook",
				"hook_index", i,
				"target_id", target.ID,
				"user_email", c.UserEmail,
			)
			return false
		}
	}
	return true
}

// RunPosted invokes the posted hooks in order.
func (h *Hooks) RunPosted(ctx context.Context, c *model.Comment, target *model.Target) {
	for _, fn := range h.posted {
		fn(ctx, c, target)
	}
}
