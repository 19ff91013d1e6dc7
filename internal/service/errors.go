package service

import "errors"

var (
	ErrTargetNotFound      = errors.New("target not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrFeatureDisabled     = errors.New("feature disabled for this target type")
	ErrAuthRequired        = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrThreadDepthExceeded = errors.New("maximum thread depth exceeded")
	ErrBadToken            = errors.New("invalid or tampered token")
	ErrTokenExpired        = errors.New("token has expired")
)
