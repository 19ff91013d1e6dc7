package model

import "time"

// ThreadMute is a permanent per-(target, email) opt-out from follow-up
// notifications. Once recorded, the email receives no further notifications
// for that target regardless of future comments.
type ThreadMute struct {
	ID        int64     `json:"id"`
	TargetID  int64     `json:"target_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MutePayload is the signed content of a mute token: enough to identify the
// (target, email) pair without a database lookup at link-generation time.
type MutePayload struct {
	TargetRef string `json:"target_ref"`
	Email     string `json:"email"`
}
