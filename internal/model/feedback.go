package model

import "time"

type FlagKind string

const (
	FlagKindLike    FlagKind = "like"
	FlagKindDislike FlagKind = "dislike"
	FlagKindReport  FlagKind = "report"
)

// Opposite returns the mutually exclusive counterpart of a like/dislike
// flag, or empty for other kinds.
func (k FlagKind) Opposite() FlagKind {
	switch k {
	case FlagKindLike:
		return FlagKindDislike
	case FlagKindDislike:
		return FlagKindLike
	default:
		return ""
	}
}

// Flag records one actor's feedback on one comment. ActorKey identifies the
// actor: "user:<id>" for authenticated users, "anon:<session-key>" for
// visitors. At most one like/dislike per (comment, actor) exists at a time.
type Flag struct {
	ID        int64     `json:"id"`
	CommentID int64     `json:"comment_id"`
	ActorKey  string    `json:"actor_key"`
	Kind      FlagKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
