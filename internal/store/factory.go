package store

import (
	"commentary.app/comments/core/db"
)

type Stores struct {
	dbtx db.DBTX
}

func NewStores(dbtx db.DBTX) *Stores {
	return &Stores{dbtx: dbtx}
}

func (s *Stores) Targets() TargetStore {
	return newTargetStore(s.dbtx)
}

func (s *Stores) Comments() CommentStore {
	return newCommentStore(s.dbtx)
}

func (s *Stores) Flags() FlagStore {
	return newFlagStore(s.dbtx)
}

func (s *Stores) Mutes() MuteStore {
	return newMuteStore(s.dbtx)
}
