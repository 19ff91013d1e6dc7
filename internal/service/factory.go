package service

import (
	"commentary.app/comments/core/config"
	"commentary.app/comments/internal/mail"
	"commentary.app/comments/internal/queue"
	"commentary.app/comments/internal/store"
	"commentary.app/comments/internal/token"
)

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	hooks    *Hooks
	sender   *mail.Sender
	producer queue.Producer
	cfg      config.Config

	confirmCodec *token.Codec
	muteCodec    *token.Codec
}

// NewServices wires the service layer. Notification fan-out is registered
// as a posted hook, so every persistence path (immediate post and confirmed
// double opt-in) triggers it without knowing about it.
func NewServices(stores *store.Stores, txRunner TxRunner, sender *mail.Sender, producer queue.Producer, cfg config.Config) *Services {
	s := &Services{
		stores:       stores,
		txRunner:     txRunner,
		hooks:        NewHooks(),
		sender:       sender,
		producer:     producer,
		cfg:          cfg,
		confirmCodec: token.New(cfg.Token.Secret, cfg.Token.ConfirmSalt, cfg.Token.ConfirmTTL),
		muteCodec:    token.New(cfg.Token.Secret, cfg.Token.MuteSalt, 0),
	}

	notify := s.Notify()
	s.hooks.OnPosted(notify.NotifyFollowers)

	return s
}

func (s *Services) Hooks() *Hooks {
	return s.hooks
}

func (s *Services) Comments() CommentService {
	return NewCommentService(
		s.stores.Targets(),
		s.stores.Comments(),
		s.txRunner,
		s.hooks,
		s.confirmCodec,
		s.sender,
		s.producer,
		s.cfg.Comments,
	)
}

func (s *Services) Notify() NotifyService {
	return NewNotifyService(
		s.stores.Targets(),
		s.stores.Comments(),
		s.stores.Mutes(),
		s.muteCodec,
		s.sender,
		s.producer,
	)
}

func (s *Services) Feedback() FeedbackService {
	return NewFeedbackService(
		s.stores.Targets(),
		s.stores.Comments(),
		s.stores.Flags(),
		s.txRunner,
		s.cfg.Comments,
	)
}
