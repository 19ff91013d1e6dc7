package token_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"commentary.app/comments/internal/model"
	"commentary.app/comments/internal/token"
)

var _ = Describe("Codec", func() {
	const secret = "test-secret-key"

	var codec *token.Codec

	BeforeEach(func() {
		codec = token.New(secret, "comment-confirmation", 48*time.Hour)
	})

	pending := func() model.PendingComment {
		return model.PendingComment{
			TargetRef:     "blog.article:september",
			UserName:      "Bob",
			UserEmail:     "bob@example.com",
			Body:          "Es war einmal eine kleine...",
			WantsFollowup: true,
			SubmittedAt:   time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		}
	}

	Describe("Encode/Decode", func() {
		It("round-trips a pending comment", func() {
			in := pending()
			s, err := codec.Encode(in)
			Expect(err).NotTo(HaveOccurred())

			var out model.PendingComment
			Expect(codec.Decode(s, &out)).To(Succeed())
			Expect(out).To(Equal(in))
		})

		It("round-trips a mute payload", func() {
			in := model.MutePayload{TargetRef: "blog.article:september", Email: "bob@example.com"}
			s, err := codec.Encode(in)
			Expect(err).NotTo(HaveOccurred())

			var out model.MutePayload
			Expect(codec.Decode(s, &out)).To(Succeed())
			Expect(out).To(Equal(in))
		})
	})

	Describe("failure kinds", func() {
		It("rejects a token signed with a different salt", func() {
			other := token.New(secret, "comment-mute", 48*time.Hour)

			s, err := other.Encode(pending())
			Expect(err).NotTo(HaveOccurred())

			var out model.PendingComment
			Expect(codec.Decode(s, &out)).To(MatchError(token.ErrBadSignature))
		})

		It("rejects a token signed with a different secret", func() {
			other := token.New("another-secret", "comment-confirmation", 48*time.Hour)

			s, err := other.Encode(pending())
			Expect(err).NotTo(HaveOccurred())

			var out model.PendingComment
			Expect(codec.Decode(s, &out)).To(MatchError(token.ErrBadSignature))
		})

		It("rejects a tampered token", func() {
			s, err := codec.Encode(pending())
			Expect(err).NotTo(HaveOccurred())

			tampered := s[:len(s)-2] + "xx"

			var out model.PendingComment
			Expect(codec.Decode(tampered, &out)).To(MatchError(token.ErrBadSignature))
		})

		It("rejects garbage", func() {
			var out model.PendingComment
			Expect(codec.Decode("not-a-token", &out)).To(MatchError(token.ErrBadSignature))
		})

		It("rejects an expired token", func() {
			shortLived := token.New(secret, "comment-confirmation", time.Nanosecond)

			s, err := shortLived.Encode(pending())
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			var out model.PendingComment
			Expect(shortLived.Decode(s, &out)).To(MatchError(token.ErrExpired))
		})

		It("never expires tokens from a zero max-age codec", func() {
			permanent := token.New(secret, "comment-mute", 0)

			s, err := permanent.Encode(model.MutePayload{TargetRef: "t", Email: "e@example.com"})
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			var out model.MutePayload
			Expect(permanent.Decode(s, &out)).To(Succeed())
		})
	})

	Describe("token length", func() {
		It("stays under the URL bound for multi-kilobyte bodies", func() {
			in := pending()
			// ~40KB of prose-like text.
			in.Body = strings.Repeat("What I did last September, in some detail. ", 1000)

			s, err := codec.Encode(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(s)).To(BeNumerically("<=", 4096))

			var out model.PendingComment
			Expect(codec.Decode(s, &out)).To(Succeed())
			Expect(out.Body).To(Equal(in.Body))
		})
	})
})
