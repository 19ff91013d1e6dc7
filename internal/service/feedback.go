package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"commentary.app/comments/common/id"
	"commentary.app/comments/core/config"
	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/store"
)

// OpinionState is what the like/dislike confirm-intent page needs: the
// comment, its current tallies and whether this actor already holds either
// opinion.
type OpinionState struct {
	Comment  *model.Comment
	Likes    int64
	Dislikes int64
	// Current is the actor's standing opinion, empty when none.
	Current model.FlagKind
}

type FeedbackService interface {
	Opinion(ctx context.Context, commentID int64, actor model.Actor) (*OpinionState, error)
	// SetOpinion records a like or dislike. The two are mutually exclusive:
	// setting one withdraws the other. Re-setting the standing opinion is a
	// no-op; withdrawal is always an explicit separate call.
	SetOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*OpinionState, error)
	WithdrawOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*OpinionState, error)
	// CanFlag reports whether the comment exists and accepts reports, for
	// the flag-intent page.
	CanFlag(ctx context.Context, commentID int64) (*model.Comment, error)
	// Report records an inappropriate flag. Idempotent per actor.
	Report(ctx context.Context, commentID int64, actor model.Actor) error
	// Remove marks a comment removed. Moderator capability required; the
	// row is never deleted.
	Remove(ctx context.Context, commentID int64, actor model.Actor) (*model.Comment, error)
}

type feedbackService struct {
	targets  store.TargetStore
	comments store.CommentStore
	flags    store.FlagStore
	txRunner TxRunner
	options  config.CommentsConfig
}

func NewFeedbackService(
	targets store.TargetStore,
	comments store.CommentStore,
	flags store.FlagStore,
	txRunner TxRunner,
	options config.CommentsConfig,
) FeedbackService {
	return &feedbackService{
		targets:  targets,
		comments: comments,
		flags:    flags,
		txRunner: txRunner,
		options:  options,
	}
}

// loadComment resolves a live comment and its per-type options. Removed and
// non-public comments are indistinguishable from absent ones.
func (s *feedbackService) loadComment(ctx context.Context, commentID int64) (*model.Comment, config.CommentOptions, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, config.CommentOptions{}, ErrCommentNotFound
		}
		return nil, config.CommentOptions{}, fmt.Errorf("getting comment: %w", err)
	}
	if !comment.IsPublic || comment.IsRemoved {
		return nil, config.CommentOptions{}, ErrCommentNotFound
	}

	target, err := s.targets.GetByID(ctx, comment.TargetID)
	if err != nil {
		return nil, config.CommentOptions{}, fmt.Errorf("getting target: %w", err)
	}

	return comment, s.options.Resolve(target.TargetType), nil
}

func (s *feedbackService) Opinion(ctx context.Context, commentID int64, actor model.Actor) (*OpinionState, error) {
	comment, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !opts.AllowFeedback {
		return nil, ErrFeatureDisabled
	}
	return s.opinionState(ctx, comment, actor)
}

func (s *feedbackService) opinionState(ctx context.Context, comment *model.Comment, actor model.Actor) (*OpinionState, error) {
	likes, dislikes, err := s.flags.Counts(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("counting flags: %w", err)
	}

	state := &OpinionState{Comment: comment, Likes: likes, Dislikes: dislikes}
	for _, kind := range []model.FlagKind{model.FlagKindLike, model.FlagKindDislike} {
		_, err := s.flags.Get(ctx, comment.ID, actor.Key(), kind)
		if err == nil {
			state.Current = kind
			break
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("getting flag: %w", err)
		}
	}
	return state, nil
}

func (s *feedbackService) SetOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*OpinionState, error) {
	if kind != model.FlagKindLike && kind != model.FlagKindDislike {
		return nil, fmt.Errorf("flag kind %q is not an opinion", kind)
	}

	comment, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !opts.AllowFeedback {
		return nil, ErrFeatureDisabled
	}

	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		// Mutual exclusion: a like displaces a standing dislike and vice
		// versa, atomically with the insert.
		if _, err := stores.Flags().Delete(ctx, commentID, actor.Key(), kind.Opposite()); err != nil {
			return fmt.Errorf("withdrawing opposite opinion: %w", err)
		}
		if _, err := stores.Flags().Insert(ctx, &model.Flag{
			ID:        id.New(),
			CommentID: commentID,
			ActorKey:  actor.Key(),
			Kind:      kind,
		}); err != nil {
			return fmt.Errorf("recording opinion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "opinion set",
		"comment_id", commentID,
		"kind", kind,
	)

	return s.opinionState(ctx, comment, actor)
}

func (s *feedbackService) WithdrawOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*OpinionState, error) {
	if kind != model.FlagKindLike && kind != model.FlagKindDislike {
		return nil, fmt.Errorf("flag kind %q is not an opinion", kind)
	}

	comment, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !opts.AllowFeedback {
		return nil, ErrFeatureDisabled
	}

	deleted, err := s.flags.Delete(ctx, commentID, actor.Key(), kind)
	if err != nil {
		return nil, fmt.Errorf("withdrawing opinion: %w", err)
	}
	if deleted {
		slog.InfoContext(ctx, "opinion withdrawn",
			"comment_id", commentID,
			"kind", kind,
		)
	}

	return s.opinionState(ctx, comment, actor)
}

func (s *feedbackService) CanFlag(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !opts.AllowFlagging {
		return nil, ErrFeatureDisabled
	}
	return comment, nil
}

func (s *feedbackService) Report(ctx context.Context, commentID int64, actor model.Actor) error {
	_, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !opts.AllowFlagging {
		return ErrFeatureDisabled
	}

	inserted, err := s.flags.Insert(ctx, &model.Flag{
		ID:        id.New(),
		CommentID: commentID,
		ActorKey:  actor.Key(),
		Kind:      model.FlagKindReport,
	})
	if err != nil {
		return fmt.Errorf("recording report: %w", err)
	}

	if inserted {
		slog.InfoContext(ctx, "comment reported", "comment_id", commentID)
	}
	return nil
}

func (s *feedbackService) Remove(ctx context.Context, commentID int64, actor model.Actor) (*model.Comment, error) {
	if !actor.IsModerator {
		return nil, ErrForbidden
	}

	comment, opts, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !opts.AllowFlagging {
		return nil, ErrFeatureDisabled
	}

	if err := s.comments.MarkRemoved(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("removing comment: %w", err)
	}
	comment.IsRemoved = true

	slog.InfoContext(ctx, "comment removed",
		"comment_id", commentID,
		"thread_id", comment.ThreadID,
	)

	return comment, nil
}
