package handler_test

import (
	"context"

	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/service"
)

type mockCommentService struct {
	postFn    func(ctx context.Context, req service.PostRequest, actor model.Actor) (*service.PostOutcome, error)
	confirmFn func(ctx context.Context, key string) (*service.ConfirmOutcome, error)
	replyFn   func(ctx context.Context, parentID int64, actor model.Actor) (*service.ReplyContext, error)
	listFn    func(ctx context.Context, targetRef string) ([]model.Comment, error)
	treeFn    func(ctx context.Context, targetRef string) ([]*model.CommentNode, error)
	countFn   func(ctx context.Context, targetRef string) (int64, error)
}

func (m *mockCommentService) Post(ctx context.Context, req service.PostRequest, actor model.Actor) (*service.PostOutcome, error) {
	if m.postFn != nil {
		return m.postFn(ctx, req, actor)
	}
	return &service.PostOutcome{Comment: &model.Comment{ID: 1}}, nil
}

func (m *mockCommentService) Confirm(ctx context.Context, key string) (*service.ConfirmOutcome, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, key)
	}
	return &service.ConfirmOutcome{}, nil
}

func (m *mockCommentService) Reply(ctx context.Context, parentID int64, actor model.Actor) (*service.ReplyContext, error) {
	if m.replyFn != nil {
		return m.replyFn(ctx, parentID, actor)
	}
	return &service.ReplyContext{}, nil
}

func (m *mockCommentService) List(ctx context.Context, targetRef string) ([]model.Comment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, targetRef)
	}
	return []model.Comment{}, nil
}

func (m *mockCommentService) Tree(ctx context.Context, targetRef string) ([]*model.CommentNode, error) {
	if m.treeFn != nil {
		return m.treeFn(ctx, targetRef)
	}
	return []*model.CommentNode{}, nil
}

func (m *mockCommentService) Count(ctx context.Context, targetRef string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, targetRef)
	}
	return 0, nil
}

type mockNotifyService struct {
	muteFn func(ctx context.Context, key string) (*model.Target, error)
}

func (m *mockNotifyService) NotifyFollowers(ctx context.Context, comment *model.Comment, target *model.Target) {
}

func (m *mockNotifyService) Mute(ctx context.Context, key string) (*model.Target, error) {
	if m.muteFn != nil {
		return m.muteFn(ctx, key)
	}
	return &model.Target{}, nil
}

type mockFeedbackService struct {
	opinionFn         func(ctx context.Context, commentID int64, actor model.Actor) (*service.OpinionState, error)
	setOpinionFn      func(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*service.OpinionState, error)
	withdrawOpinionFn func(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*service.OpinionState, error)
	canFlagFn         func(ctx context.Context, commentID int64) (*model.Comment, error)
	reportFn          func(ctx context.Context, commentID int64, actor model.Actor) error
	removeFn          func(ctx context.Context, commentID int64, actor model.Actor) (*model.Comment, error)
}

func (m *mockFeedbackService) Opinion(ctx context.Context, commentID int64, actor model.Actor) (*service.OpinionState, error) {
	if m.opinionFn != nil {
		return m.opinionFn(ctx, commentID, actor)
	}
	return &service.OpinionState{Comment: &model.Comment{ID: commentID}}, nil
}

func (m *mockFeedbackService) SetOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*service.OpinionState, error) {
	if m.setOpinionFn != nil {
		return m.setOpinionFn(ctx, commentID, actor, kind)
	}
	return &service.OpinionState{Comment: &model.Comment{ID: commentID}}, nil
}

func (m *mockFeedbackService) WithdrawOpinion(ctx context.Context, commentID int64, actor model.Actor, kind model.FlagKind) (*service.OpinionState, error) {
	if m.withdrawOpinionFn != nil {
		return m.withdrawOpinionFn(ctx, commentID, actor, kind)
	}
	return &service.OpinionState{Comment: &model.Comment{ID: commentID}}, nil
}

func (m *mockFeedbackService) CanFlag(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.canFlagFn != nil {
		return m.canFlagFn(ctx, commentID)
	}
	return &model.Comment{ID: commentID}, nil
}

func (m *mockFeedbackService) Report(ctx context.Context, commentID int64, actor model.Actor) error {
	if m.reportFn != nil {
		return m.reportFn(ctx, commentID, actor)
	}
	return nil
}

func (m *mockFeedbackService) Remove(ctx context.Context, commentID int64, actor model.Actor) (*model.Comment, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, commentID, actor)
	}
	return &model.Comment{ID: commentID, IsRemoved: true}, nil
}
