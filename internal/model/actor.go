package model

import "fmt"

// Actor is the identity performing a request. Authentication itself is the
// host application's job; it forwards the resolved identity and this service
// trusts it. Anonymous visitors carry a session key so their feedback flags
// are still tracked per session.
type Actor struct {
	UserID      *int64
	Name        string
	Email       string
	URL         string
	SessionKey  string
	IsModerator bool
}

func (a Actor) Authenticated() bool {
	return a.UserID != nil
}

// Key returns the stable identifier used to track this actor's feedback
// flags.
func (a Actor) Key() string {
	if a.UserID != nil {
		return fmt.Sprintf("user:%d", *a.UserID)
	}
	return "anon:" + a.SessionKey
}
