package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"commentary.app/comments/core/db"
	"commentary.app/comments/internal/model"
)

type muteStore struct {
	dbtx db.DBTX
}

func newMuteStore(dbtx db.DBTX) MuteStore {
	return &muteStore{dbtx: dbtx}
}

func (s *muteStore) Insert(ctx context.Context, mute *model.ThreadMute) (bool, error) {
	err := s.dbtx.QueryRow(ctx, `
		INSERT INTO thread_mutes (id, target_id, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (target_id, email) DO NOTHING
		RETURNING id, created_at`,
		mute.ID, mute.TargetID, strings.ToLower(mute.Email)).
		Scan(&mute.ID, &mute.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
