package model

import "time"

// Target is the content object comments attach to: an article, a quote, an
// event page. The host application registers targets with a stable external
// reference and a canonical URL; this service never dereferences the content
// itself.
type Target struct {
	ID          int64     `json:"id"`
	TargetType  string    `json:"target_type"` // e.g. "blog.article"
	ExternalRef string    `json:"external_ref"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
