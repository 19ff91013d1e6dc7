package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"commentary.app/comments/common/id"
	"commentary.app/comments/internal/mail"
	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/queue"
	"commentary.app/comments/internal/store"
	"commentary.app/comments/internal/token"
)

type NotifyService interface {
	// NotifyFollowers fans a new comment out to every distinct follower of
	// its target. Delivery is fire-and-forget: failures are logged and the
	// comment stands regardless.
	NotifyFollowers(ctx context.Context, comment *model.Comment, target *model.Target)

	// Mute records a permanent opt-out from follow-up notifications. The
	// key comes from the mute link embedded in a notification email.
	Mute(ctx context.Context, key string) (*model.Target, error)
}

type notifyService struct {
	targets   store.TargetStore
	comments  store.CommentStore
	mutes     store.MuteStore
	muteCodec *token.Codec
	sender    *mail.Sender
	producer  queue.Producer
}

func NewNotifyService(
	targets store.TargetStore,
	comments store.CommentStore,
	mutes store.MuteStore,
	muteCodec *token.Codec,
	sender *mail.Sender,
	producer queue.Producer,
) NotifyService {
	return &notifyService{
		targets:   targets,
		comments:  comments,
		mutes:     mutes,
		muteCodec: muteCodec,
		sender:    sender,
		producer:  producer,
	}
}

func (s *notifyService) NotifyFollowers(ctx context.Context, comment *model.Comment, target *model.Target) {
	followers, err := s.comments.Followers(ctx, target.ID, comment.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "listing followers failed",
			"comment_id", comment.ID,
			"target_id", target.ID,
			"error", err,
		)
		return
	}

	sent := 0
	for _, follower := range followers {
		if err := s.notifyOne(ctx, comment, target, follower); err != nil {
			slog.ErrorContext(ctx, "follow-up notification failed",
				"comment_id", comment.ID,
				"recipient", follower.Email,
				"error", err,
			)
			continue
		}
		sent++
	}

	if sent > 0 {
		slog.InfoContext(ctx, "follow-up notifications enqueued",
			"comment_id", comment.ID,
			"target_id", target.ID,
			"count", sent,
		)
	}
}

func (s *notifyService) notifyOne(ctx context.Context, comment *model.Comment, target *model.Target, follower store.Follower) error {
	muteKey, err := s.muteCodec.Encode(model.MutePayload{
		TargetRef: target.ExternalRef,
		Email:     follower.Email,
	})
	if err != nil {
		return fmt.Errorf("encoding mute token: %w", err)
	}

	msg, err := s.sender.Followup(follower.Email, comment, target, muteKey)
	if err != nil {
		return fmt.Errorf("rendering follow-up: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.MailTask{
		Kind:     queue.MailKindFollowup,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	}); err != nil {
		return fmt.Errorf("enqueueing follow-up: %w", err)
	}
	return nil
}

func (s *notifyService) Mute(ctx context.Context, key string) (*model.Target, error) {
	var payload model.MutePayload
	if err := s.muteCodec.Decode(key, &payload); err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrBadToken
	}

	target, err := s.targets.GetByRef(ctx, payload.TargetRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("getting target: %w", err)
	}

	inserted, err := s.mutes.Insert(ctx, &model.ThreadMute{
		ID:       id.New(),
		TargetID: target.ID,
		Email:    strings.ToLower(payload.Email),
	})
	if err != nil {
		return nil, fmt.Errorf("recording mute: %w", err)
	}

	if inserted {
		slog.InfoContext(ctx, "follow-up notifications muted",
			"target_id", target.ID,
			"recipient", payload.Email,
		)
	}

	return target, nil
}
