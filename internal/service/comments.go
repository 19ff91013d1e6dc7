package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"commentary.app/comments/common/id"
	"commentary.app/comments/common/logger"
	"commentary.app/comments/core/config"
	"commentary.app/comments/internal/mail"
	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/queue"
	"commentary.app/comments/internal/store"
	"commentary.app/comments/internal/token"
)

// PostRequest carries everything needed to post a comment. Target metadata
// (type, title, URL) comes from the host application and registers the
// target lazily on first comment. Name/Email/URL are only consulted for
// anonymous actors; authenticated identity comes from the Actor.
type PostRequest struct {
	TargetRef     string
	TargetType    string
	TargetTitle   string
	TargetURL     string
	Body          string
	ParentID      *int64
	WantsFollowup bool
	Name          string
	Email         string
	URL           string
}

// PostOutcome is the result of Post. Exactly one of Comment (persisted
// immediately, authenticated path) or ConfirmationSent (anonymous double
// opt-in path) is meaningful.
type PostOutcome struct {
	Comment          *model.Comment
	ConfirmationSent bool
	Discarded        bool
}

// ConfirmStatus describes what happened when a confirmation link was followed.
type ConfirmStatus string

const (
	// ConfirmStatusConfirmed means the pending comment is now persisted.
	ConfirmStatusConfirmed ConfirmStatus = "confirmed"
	// ConfirmStatusReplayed means the comment already existed; nothing ran.
	ConfirmStatusReplayed ConfirmStatus = "replayed"
	// ConfirmStatusDiscarded means a will-post hook vetoed the comment.
	ConfirmStatusDiscarded ConfirmStatus = "discarded"
)

type ConfirmOutcome struct {
	Status  ConfirmStatus
	Comment *model.Comment
	Target  *model.Target
}

// ReplyContext is what a reply form needs: the parent comment and its target.
type ReplyContext struct {
	Parent *model.Comment
	Target *model.Target
}

type CommentService interface {
	Post(ctx context.Context, req PostRequest, actor model.Actor) (*PostOutcome, error)
	Confirm(ctx context.Context, key string) (*ConfirmOutcome, error)
	Reply(ctx context.Context, parentID int64, actor model.Actor) (*ReplyContext, error)
	List(ctx context.Context, targetRef string) ([]model.Comment, error)
	Tree(ctx context.Context, targetRef string) ([]*model.CommentNode, error)
	Count(ctx context.Context, targetRef string) (int64, error)
}

type commentService struct {
	targets      store.TargetStore
	comments     store.CommentStore
	txRunner     TxRunner
	hooks        *Hooks
	confirmCodec *token.Codec
	sender       *mail.Sender
	producer     queue.Producer
	options      config.CommentsConfig
}

func NewCommentService(
	targets store.TargetStore,
	comments store.CommentStore,
	txRunner TxRunner,
	hooks *Hooks,
	confirmCodec *token.Codec,
	sender *mail.Sender,
	producer queue.Producer,
	options config.CommentsConfig,
) CommentService {
	return &commentService{
		targets:      targets,
		comments:     comments,
		txRunner:     txRunner,
		hooks:        hooks,
		confirmCodec: confirmCodec,
		sender:       sender,
		producer:     producer,
		options:      options,
	}
}

func (s *commentService) Post(ctx context.Context, req PostRequest, actor model.Actor) (*PostOutcome, error) {
	target := &model.Target{
		ID:          id.New(),
		TargetType:  req.TargetType,
		ExternalRef: req.TargetRef,
		Title:       req.TargetTitle,
		URL:         req.TargetURL,
	}
	if err := s.targets.Upsert(ctx, target); err != nil {
		return nil, fmt.Errorf("upserting target: %w", err)
	}

	opts := s.options.Resolve(target.TargetType)
	if !opts.AllowComments {
		return nil, ErrFeatureDisabled
	}
	if opts.WhoCanPost == "users" && !actor.Authenticated() {
		return nil, ErrAuthRequired
	}

	var parent *model.Comment
	if req.ParentID != nil {
		var err error
		parent, err = s.lookupParent(ctx, *req.ParentID, target, opts)
		if err != nil {
			return nil, err
		}
	}

	if actor.Authenticated() {
		return s.postAuthenticated(ctx, req, actor, target, parent)
	}
	return s.postAnonymous(ctx, req, target)
}

// lookupParent resolves and validates the reply-to comment.
func (s *commentService) lookupParent(ctx context.Context, parentID int64, target *model.Target, opts config.CommentOptions) (*model.Comment, error) {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("getting parent comment: %w", err)
	}
	if parent.TargetID != target.ID || !parent.IsPublic || parent.IsRemoved {
		return nil, ErrCommentNotFound
	}
	if parent.Level+1 > opts.MaxThreadLevel {
		return nil, ErrThreadDepthExceeded
	}
	return parent, nil
}

func (s *commentService) postAuthenticated(ctx context.Context, req PostRequest, actor model.Actor, target *model.Target, parent *model.Comment) (*PostOutcome, error) {
	comment := buildComment(target, parent, model.PendingComment{
		UserName:      actor.Name,
		UserEmail:     actor.Email,
		UserURL:       actor.URL,
		Body:          req.Body,
		WantsFollowup: req.WantsFollowup,
		SubmittedAt:   time.Now().UTC().Truncate(time.Second),
	})
	comment.UserID = actor.UserID

	if !s.hooks.RunWillPost(ctx, comment, target) {
		return &PostOutcome{Discarded: true}, nil
	}

	created, err := s.persist(ctx, comment)
	if err != nil {
		return nil, err
	}
	if !created {
		// Duplicate submission within the same second: the natural key
		// already exists, so return that row instead of a phantom ID and
		// skip the hooks so followers are not notified twice.
		existing, err := s.comments.GetByNaturalKey(ctx, target.ID, comment.UserEmail, comment.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("reading existing comment: %w", err)
		}
		slog.InfoContext(ctx, "duplicate comment submission",
			"comment_id", existing.ID,
			"target_id", target.ID,
		)
		return &PostOutcome{Comment: existing}, nil
	}

	s.hooks.RunPosted(ctx, comment, target)

	slog.InfoContext(ctx, "comment posted",
		"comment_id", comment.ID,
		"target_id", target.ID,
		"thread_id", comment.ThreadID,
		"authenticated", true,
	)

	return &PostOutcome{Comment: comment}, nil
}

func (s *commentService) postAnonymous(ctx context.Context, req PostRequest, target *model.Target) (*PostOutcome, error) {
	pending := &model.PendingComment{
		TargetRef:     target.ExternalRef,
		UserName:      req.Name,
		UserEmail:     strings.ToLower(strings.TrimSpace(req.Email)),
		UserURL:       req.URL,
		Body:          req.Body,
		ParentID:      req.ParentID,
		WantsFollowup: req.WantsFollowup,
		SubmittedAt:   time.Now().UTC().Truncate(time.Second),
	}

	key, err := s.confirmCodec.Encode(pending)
	if err != nil {
		return nil, fmt.Errorf("encoding confirmation token: %w", err)
	}

	msg, err := s.sender.Confirmation(pending, target, key)
	if err != nil {
		return nil, fmt.Errorf("rendering confirmation: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.MailTask{
		Kind:     queue.MailKindConfirmation,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	}); err != nil {
		return nil, fmt.Errorf("enqueueing confirmation: %w", err)
	}

	slog.InfoContext(ctx, "confirmation requested",
		"target_id", target.ID,
		"recipient", pending.UserEmail,
	)

	return &PostOutcome{ConfirmationSent: true}, nil
}

func (s *commentService) Confirm(ctx context.Context, key string) (*ConfirmOutcome, error) {
	var pending model.PendingComment
	if err := s.confirmCodec.Decode(key, &pending); err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrBadToken
	}

	target, err := s.targets.GetByRef(ctx, pending.TargetRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("getting target: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TargetID: logger.Ptr(target.ID),
	})

	// Replay: the token was already confirmed. Return the existing comment
	// and run nothing else, so refreshing the confirmation page is harmless.
	existing, err := s.comments.GetByNaturalKey(ctx, target.ID, pending.UserEmail, pending.SubmittedAt)
	if err == nil {
		slog.InfoContext(ctx, "confirmation replayed", "comment_id", existing.ID)
		return &ConfirmOutcome{Status: ConfirmStatusReplayed, Comment: existing, Target: target}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking for existing comment: %w", err)
	}

	opts := s.options.Resolve(target.TargetType)

	var parent *model.Comment
	if pending.ParentID != nil {
		parent, err = s.lookupParent(ctx, *pending.ParentID, target, opts)
		if err != nil {
			return nil, err
		}
	}

	comment := buildComment(target, parent, pending)

	if !s.hooks.RunWillPost(ctx, comment, target) {
		return &ConfirmOutcome{Status: ConfirmStatusDiscarded, Target: target}, nil
	}

	created, err := s.persist(ctx, comment)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a concurrent double-confirm: the winner's row is already
		// there. Report replay so neither click double-notifies.
		winner, err := s.comments.GetByNaturalKey(ctx, target.ID, pending.UserEmail, pending.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("reading winning comment: %w", err)
		}
		return &ConfirmOutcome{Status: ConfirmStatusReplayed, Comment: winner, Target: target}, nil
	}

	s.hooks.RunPosted(ctx, comment, target)

	slog.InfoContext(ctx, "comment confirmed",
		"comment_id", comment.ID,
		"thread_id", comment.ThreadID,
	)

	return &ConfirmOutcome{Status: ConfirmStatusConfirmed, Comment: comment, Target: target}, nil
}

// buildComment materializes the thread placement fields: a root comment
// anchors its own thread, a reply inherits the parent's thread and nests one
// level deeper. Order within the thread is assigned by the store on insert.
func buildComment(target *model.Target, parent *model.Comment, pending model.PendingComment) *model.Comment {
	comment := &model.Comment{
		ID:            id.New(),
		TargetID:      target.ID,
		UserName:      pending.UserName,
		UserEmail:     strings.ToLower(strings.TrimSpace(pending.UserEmail)),
		UserURL:       pending.UserURL,
		Body:          pending.Body,
		IsPublic:      true,
		WantsFollowup: pending.WantsFollowup,
		SubmittedAt:   pending.SubmittedAt,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.ThreadID = parent.ThreadID
		comment.Level = parent.Level + 1
	} else {
		comment.ThreadID = comment.ID
	}
	return comment
}

// persist inserts the comment inside a transaction. Returns false when a row
// with the same natural key won the race.
func (s *commentService) persist(ctx context.Context, comment *model.Comment) (bool, error) {
	var created bool
	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		created, err = stores.Comments().Create(ctx, comment)
		if err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}
		return nil
	})
	return created, err
}

func (s *commentService) Reply(ctx context.Context, parentID int64, actor model.Actor) (*ReplyContext, error) {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("getting comment: %w", err)
	}
	if !parent.IsPublic || parent.IsRemoved {
		return nil, ErrCommentNotFound
	}

	target, err := s.targets.GetByID(ctx, parent.TargetID)
	if err != nil {
		return nil, fmt.Errorf("getting target: %w", err)
	}

	opts := s.options.Resolve(target.TargetType)
	if !opts.AllowComments {
		return nil, ErrFeatureDisabled
	}
	if parent.Level+1 > opts.MaxThreadLevel {
		return nil, ErrThreadDepthExceeded
	}
	if opts.WhoCanPost == "users" && !actor.Authenticated() {
		return nil, ErrAuthRequired
	}

	return &ReplyContext{Parent: parent, Target: target}, nil
}

func (s *commentService) List(ctx context.Context, targetRef string) ([]model.Comment, error) {
	target, opts, err := s.resolveTarget(ctx, targetRef)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTarget(ctx, target.ID, opts.ShowRemoved)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	for i := range comments {
		if comments[i].IsRemoved {
			// The removed marker stays in the thread but its content does not.
			comments[i].Body = ""
			comments[i].UserName = ""
			comments[i].UserURL = ""
		}
	}
	return comments, nil
}

func (s *commentService) Tree(ctx context.Context, targetRef string) ([]*model.CommentNode, error) {
	comments, err := s.List(ctx, targetRef)
	if err != nil {
		return nil, err
	}
	return buildTree(comments), nil
}

func (s *commentService) Count(ctx context.Context, targetRef string) (int64, error) {
	target, _, err := s.resolveTarget(ctx, targetRef)
	if err != nil {
		return 0, err
	}
	count, err := s.comments.CountByTarget(ctx, target.ID)
	if err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return count, nil
}

func (s *commentService) resolveTarget(ctx context.Context, targetRef string) (*model.Target, config.CommentOptions, error) {
	target, err := s.targets.GetByRef(ctx, targetRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, config.CommentOptions{}, ErrTargetNotFound
		}
		return nil, config.CommentOptions{}, fmt.Errorf("getting target: %w", err)
	}
	return target, s.options.Resolve(target.TargetType), nil
}

// buildTree nests a (thread_id, order)-sorted flat list. Parents always
// precede their children in that ordering, so a single pass suffices.
func buildTree(comments []model.Comment) []*model.CommentNode {
	roots := make([]*model.CommentNode, 0, len(comments))
	byID := make(map[int64]*model.CommentNode, len(comments))

	for i := range comments {
		node := &model.CommentNode{Comment: comments[i]}
		byID[node.ID] = node
		if node.ParentID != nil {
			if parent, ok := byID[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
