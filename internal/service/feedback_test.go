package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/service"
	"commentary.app/comments/internal/store"
)

var _ = Describe("FeedbackService", func() {
	var (
		ctx      context.Context
		targets  *mockTargetStore
		comments *mockCommentStore
		flags    *mockFlagStore
		txRunner *mockTxRunner
		options  = defaultOptions()

		target  *model.Target
		comment *model.Comment
		actor   model.Actor

		svc service.FeedbackService
	)

	BeforeEach(func() {
		ctx = context.Background()
		options = defaultOptions()

		target = &model.Target{
			ID:          100,
			TargetType:  "blog.post",
			ExternalRef: "blog.post:42",
		}
		comment = &model.Comment{
			ID:       500,
			TargetID: target.ID,
			ThreadID: 500,
			IsPublic: true,
		}

		targets = &mockTargetStore{
			getByIDFn: func(_ context.Context, id int64) (*model.Target, error) {
				if id == target.ID {
					return target, nil
				}
				return nil, store.ErrNotFound
			},
		}
		comments = &mockCommentStore{
			getByIDFn: func(_ context.Context, id int64) (*model.Comment, error) {
				if id == comment.ID {
					return comment, nil
				}
				return nil, store.ErrNotFound
			},
		}
		flags = &mockFlagStore{}
		txRunner = &mockTxRunner{provider: &mockStoreProvider{flags: flags}}

		userID := int64(7)
		actor = model.Actor{UserID: &userID, Name: "Alice", Email: "alice@example.com"}
	})

	JustBeforeEach(func() {
		svc = service.NewFeedbackService(targets, comments, flags, txRunner, options)
	})

	Describe("Opinion", func() {
		It("returns tallies and the actor's standing opinion", func() {
			flags.countsFn = func(_ context.Context, _ int64) (int64, int64, error) {
				return 3, 1, nil
			}
			flags.getFn = func(_ context.Context, _ int64, actorKey string, kind model.FlagKind) (*model.Flag, error) {
				if actorKey == "user:7" && kind == model.FlagKindLike {
					return &model.Flag{Kind: model.FlagKindLike}, nil
				}
				return nil, store.ErrNotFound
			}

			state, err := svc.Opinion(ctx, comment.ID, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Likes).To(Equal(int64(3)))
			Expect(state.Dislikes).To(Equal(int64(1)))
			Expect(state.Current).To(Equal(model.FlagKindLike))
		})

		Context("when feedback is disabled for the target type", func() {
			BeforeEach(func() {
				options.Default.AllowFeedback = false
			})

			It("fails", func() {
				_, err := svc.Opinion(ctx, comment.ID, actor)
				Expect(err).To(MatchError(service.ErrFeatureDisabled))
			})
		})

		It("treats removed comments as absent", func() {
			comment.IsRemoved = true

			_, err := svc.Opinion(ctx, comment.ID, actor)
			Expect(err).To(MatchError(service.ErrCommentNotFound))
		})
	})

	Describe("SetOpinion", func() {
		It("withdraws the opposite opinion in the same transaction", func() {
			var deletedKind model.FlagKind
			flags.deleteFn = func(_ context.Context, _ int64, _ string, kind model.FlagKind) (bool, error) {
				deletedKind = kind
				return true, nil
			}
			var inserted *model.Flag
			flags.insertFn = func(_ context.Context, f *model.Flag) (bool, error) {
				inserted = f
				return true, nil
			}

			_, err := svc.SetOpinion(ctx, comment.ID, actor, model.FlagKindLike)
			Expect(err).NotTo(HaveOccurred())
			Expect(deletedKind).To(Equal(model.FlagKindDislike))
			Expect(inserted.Kind).To(Equal(model.FlagKindLike))
			Expect(inserted.ActorKey).To(Equal("user:7"))
		})

		It("is a no-op when re-setting the standing opinion", func() {
			flags.insertFn = func(_ context.Context, _ *model.Flag) (bool, error) {
				return false, nil
			}

			_, err := svc.SetOpinion(ctx, comment.ID, actor, model.FlagKindLike)
			Expect(err).NotTo(HaveOccurred())
		})

		It("tracks anonymous actors by session key", func() {
			var inserted *model.Flag
			flags.insertFn = func(_ context.Context, f *model.Flag) (bool, error) {
				inserted = f
				return true, nil
			}

			_, err := svc.SetOpinion(ctx, comment.ID, model.Actor{SessionKey: "sess-1"}, model.FlagKindDislike)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted.ActorKey).To(Equal("anon:sess-1"))
		})

		It("rejects the report kind", func() {
			_, err := svc.SetOpinion(ctx, comment.ID, actor, model.FlagKindReport)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WithdrawOpinion", func() {
		It("removes only the named opinion", func() {
			var deletedKind model.FlagKind
			flags.deleteFn = func(_ context.Context, _ int64, _ string, kind model.FlagKind) (bool, error) {
				deletedKind = kind
				return true, nil
			}

			_, err := svc.WithdrawOpinion(ctx, comment.ID, actor, model.FlagKindLike)
			Expect(err).NotTo(HaveOccurred())
			Expect(deletedKind).To(Equal(model.FlagKindLike))
		})

		It("tolerates withdrawing an opinion that was never set", func() {
			flags.deleteFn = func(_ context.Context, _ int64, _ string, _ model.FlagKind) (bool, error) {
				return false, nil
			}

			_, err := svc.WithdrawOpinion(ctx, comment.ID, actor, model.FlagKindDislike)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Report", func() {
		It("records an inappropriate flag", func() {
			var inserted *model.Flag
			flags.insertFn = func(_ context.Context, f *model.Flag) (bool, error) {
				inserted = f
				return true, nil
			}

			Expect(svc.Report(ctx, comment.ID, actor)).To(Succeed())
			Expect(inserted.Kind).To(Equal(model.FlagKindReport))
		})

		It("is idempotent per actor", func() {
			flags.insertFn = func(_ context.Context, _ *model.Flag) (bool, error) {
				return false, nil
			}

			Expect(svc.Report(ctx, comment.ID, actor)).To(Succeed())
		})

		Context("when flagging is disabled for the target type", func() {
			BeforeEach(func() {
				options.Default.AllowFlagging = false
			})

			It("fails", func() {
				err := svc.Report(ctx, comment.ID, actor)
				Expect(err).To(MatchError(service.ErrFeatureDisabled))
			})
		})
	})

	Describe("Remove", func() {
		BeforeEach(func() {
			actor.IsModerator = true
		})

		It("marks the comment removed without deleting it", func() {
			var removedID int64
			comments.markRemovedFn = func(_ context.Context, id int64) error {
				removedID = id
				return nil
			}

			removed, err := svc.Remove(ctx, comment.ID, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(removedID).To(Equal(comment.ID))
			Expect(removed.IsRemoved).To(BeTrue())
		})

		It("requires moderator capability", func() {
			actor.IsModerator = false

			_, err := svc.Remove(ctx, comment.ID, actor)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("fails for unknown comments", func() {
			_, err := svc.Remove(ctx, 999, actor)
			Expect(err).To(MatchError(service.ErrCommentNotFound))
		})
	})
})
