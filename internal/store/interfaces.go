package store

import (
	"context"
	"errors"
	"time"

	"commentary.app/comments/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// TargetStore defines the contract for content-target data access
type TargetStore interface {
	GetByID(ctx context.Context, id int64) (*model.Target, error)
	GetByRef(ctx context.Context, externalRef string) (*model.Target, error)
	Upsert(ctx context.Context, target *model.Target) error
}

// Follower is one distinct notification recipient on a thread.
type Follower struct {
	Email string
	Name  string
}

// CommentStore defines the contract for comment data access
type CommentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	// GetByNaturalKey looks a comment up by the identity fields carried in a
	// confirmation token. Used for replay detection.
	GetByNaturalKey(ctx context.Context, targetID int64, email string, submittedAt time.Time) (*model.Comment, error)
	// Create inserts the comment, materializing thread_id, level and ord.
	// Returns false without error when a row with the same natural key
	// already exists (the concurrent-confirmation race).
	Create(ctx context.Context, c *model.Comment) (bool, error)
	MarkRemoved(ctx context.Context, id int64) error
	ListByTarget(ctx context.Context, targetID int64, includeRemoved bool) ([]model.Comment, error)
	CountByTarget(ctx context.Context, targetID int64) (int64, error)
	// Followers returns the distinct follow-up recipients for a target:
	// authors of public, non-removed comments with wants_followup set,
	// excluding excludeEmail (case-insensitive) and muted addresses.
	Followers(ctx context.Context, targetID int64, excludeEmail string) ([]Follower, error)
}

// FlagStore defines the contract for feedback flag data access
type FlagStore interface {
	Get(ctx context.Context, commentID int64, actorKey string, kind model.FlagKind) (*model.Flag, error)
	// Insert is idempotent: returns false without error when the same
	// (comment, actor, kind) flag already exists.
	Insert(ctx context.Context, flag *model.Flag) (bool, error)
	Delete(ctx context.Context, commentID int64, actorKey string, kind model.FlagKind) (bool, error)
	Counts(ctx context.Context, commentID int64) (likes, dislikes int64, err error)
}

// MuteStore defines the contract for follow-up mute data access
type MuteStore interface {
	// Insert is idempotent: muting an already-muted pair returns false
	// without error.
	Insert(ctx context.Context, mute *model.ThreadMute) (bool, error)
}
