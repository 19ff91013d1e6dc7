package service_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"commentary.app/comments/internal/mail"
	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/queue"
	"commentary.app/comments/internal/service"
	"commentary.app/comments/internal/store"
	"commentary.app/comments/internal/token"
)

var _ = Describe("NotifyService", func() {
	var (
		ctx       context.Context
		targets   *mockTargetStore
		comments  *mockCommentStore
		mutes     *mockMuteStore
		muteCodec *token.Codec
		sender    *mail.Sender
		producer  *mockProducer

		target  *model.Target
		comment *model.Comment

		svc service.NotifyService
	)

	BeforeEach(func() {
		ctx = context.Background()

		target = &model.Target{
			ID:          100,
			TargetType:  "blog.post",
			ExternalRef: "blog.post:42",
			Title:       "On Writing Well",
			URL:         "https://example.com/posts/42",
		}
		comment = &model.Comment{
			ID:        500,
			TargetID:  target.ID,
			ThreadID:  500,
			UserEmail: "author@example.com",
		}

		targets = &mockTargetStore{
			getByRefFn: func(_ context.Context, ref string) (*model.Target, error) {
				if ref == target.ExternalRef {
					return target, nil
				}
				return nil, store.ErrNotFound
			},
		}
		comments = &mockCommentStore{}
		mutes = &mockMuteStore{}
		muteCodec = token.New("test-secret", "mute", 0)
		sender = mail.NewSender("https://comments.example.com", "Example Blog", false)
		producer = &mockProducer{}
	})

	JustBeforeEach(func() {
		svc = service.NewNotifyService(targets, comments, mutes, muteCodec, sender, producer)
	})

	Describe("NotifyFollowers", func() {
		It("enqueues one follow-up per distinct follower", func() {
			comments.followersFn = func(_ context.Context, targetID int64, excludeEmail string) ([]store.Follower, error) {
				Expect(targetID).To(Equal(target.ID))
				Expect(excludeEmail).To(Equal("author@example.com"))
				return []store.Follower{
					{Email: "bob@example.com", Name: "Bob"},
					{Email: "carol@example.com", Name: "Carol"},
				}, nil
			}

			svc.NotifyFollowers(ctx, comment, target)

			tasks := producer.Tasks()
			Expect(tasks).To(HaveLen(2))
			Expect(tasks[0].Kind).To(Equal(queue.MailKindFollowup))
			Expect(tasks[0].To).To(Equal("bob@example.com"))
			Expect(tasks[1].To).To(Equal("carol@example.com"))
		})

		It("embeds a decodable mute token for each recipient", func() {
			comments.followersFn = func(_ context.Context, _ int64, _ string) ([]store.Follower, error) {
				return []store.Follower{{Email: "bob@example.com"}}, nil
			}

			svc.NotifyFollowers(ctx, comment, target)

			body := producer.Tasks()[0].TextBody
			start := "https://comments.example.com/comments/mute/"
			idx := strings.Index(body, start)
			Expect(idx).To(BeNumerically(">=", 0))
			key := firstToken(body[idx+len(start):])

			var payload model.MutePayload
			Expect(muteCodec.Decode(key, &payload)).To(Succeed())
			Expect(payload.TargetRef).To(Equal("blog.post:42"))
			Expect(payload.Email).To(Equal("bob@example.com"))
		})

		It("sends nothing when there are no followers", func() {
			svc.NotifyFollowers(ctx, comment, target)
			Expect(producer.Tasks()).To(BeEmpty())
		})

		It("keeps going when one enqueue fails", func() {
			comments.followersFn = func(_ context.Context, _ int64, _ string) ([]store.Follower, error) {
				return []store.Follower{
					{Email: "bob@example.com"},
					{Email: "carol@example.com"},
				}, nil
			}
			var delivered []string
			producer.enqueueFn = func(_ context.Context, task queue.MailTask) error {
				if task.To == "bob@example.com" {
					return errors.New("stream unavailable")
				}
				delivered = append(delivered, task.To)
				return nil
			}

			svc.NotifyFollowers(ctx, comment, target)
			Expect(delivered).To(Equal([]string{"carol@example.com"}))
		})
	})

	Describe("Mute", func() {
		encode := func(email string) string {
			key, err := muteCodec.Encode(model.MutePayload{TargetRef: target.ExternalRef, Email: email})
			Expect(err).NotTo(HaveOccurred())
			return key
		}

		It("records the opt-out pair", func() {
			var recorded *model.ThreadMute
			mutes.insertFn = func(_ context.Context, m *model.ThreadMute) (bool, error) {
				recorded = m
				return true, nil
			}

			muted, err := svc.Mute(ctx, encode("Bob@Example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(muted).To(Equal(target))
			Expect(recorded.TargetID).To(Equal(target.ID))
			Expect(recorded.Email).To(Equal("bob@example.com"))
		})

		It("is idempotent", func() {
			mutes.insertFn = func(_ context.Context, _ *model.ThreadMute) (bool, error) {
				return false, nil
			}

			_, err := svc.Mute(ctx, encode("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects garbage keys", func() {
			_, err := svc.Mute(ctx, "not-a-token")
			Expect(err).To(MatchError(service.ErrBadToken))
		})

		It("rejects confirmation tokens", func() {
			confirmCodec := token.New("test-secret", "confirm", 0)
			key, err := confirmCodec.Encode(model.MutePayload{TargetRef: target.ExternalRef, Email: "bob@example.com"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Mute(ctx, key)
			Expect(err).To(MatchError(service.ErrBadToken))
		})

		It("fails for unknown targets", func() {
			key, err := muteCodec.Encode(model.MutePayload{TargetRef: "blog.post:gone", Email: "bob@example.com"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Mute(ctx, key)
			Expect(err).To(MatchError(service.ErrTargetNotFound))
		})
	})
})
