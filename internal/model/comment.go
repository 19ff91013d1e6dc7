package model

import "time"

// Comment is a persisted comment on a content target. Comments form a forest
// per target: ThreadID is the root comment's ID (a root points at itself),
// Level is the nesting depth (0 for roots) and Order is the position within
// the thread's flattened pre-order traversal. Level and Order are
// materialized on insert so list views never recurse.
type Comment struct {
	ID            int64     `json:"id"`
	TargetID      int64     `json:"target_id"`
	ThreadID      int64     `json:"thread_id"`
	ParentID      *int64    `json:"parent_id,omitempty"`
	Level         int       `json:"level"`
	Order         int       `json:"order"`
	UserID        *int64    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"-"`
	UserURL       string    `json:"user_url,omitempty"`
	Body          string    `json:"body"`
	IsPublic      bool      `json:"is_public"`
	IsRemoved     bool      `json:"is_removed"`
	WantsFollowup bool      `json:"-"`
	SubmittedAt   time.Time `json:"submitted_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsRoot reports whether the comment starts its own thread.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// PendingComment is a comment awaiting email confirmation. It has no
// persistent identity: it exists only as the payload of a signed
// confirmation token until the author clicks the emailed link.
type PendingComment struct {
	TargetRef     string    `json:"target_ref"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	UserURL       string    `json:"user_url,omitempty"`
	Body          string    `json:"body"`
	ParentID      *int64    `json:"parent_id,omitempty"`
	WantsFollowup bool      `json:"wants_followup"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// CommentNode is a comment with its replies, for tree rendering.
type CommentNode struct {
	Comment
	Children []*CommentNode `json:"children,omitempty"`
}
