package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"commentary.app/comments/core/db"
	"commentary.app/comments/internal/model"
)

type flagStore struct {
	dbtx db.DBTX
}

func newFlagStore(dbtx db.DBTX) FlagStore {
	return &flagStore{dbtx: dbtx}
}

func (s *flagStore) Get(ctx context.Context, commentID int64, actorKey string, kind model.FlagKind) (*model.Flag, error) {
	var f model.Flag
	err := s.dbtx.QueryRow(ctx, `
		SELECT id, comment_id, actor_key, kind, created_at
		FROM comment_flags
		WHERE comment_id = $1 AND actor_key = $2 AND kind = $3`,
		commentID, actorKey, string(kind)).
		Scan(&f.ID, &f.CommentID, &f.ActorKey, &f.Kind, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *flagStore) Insert(ctx context.Context, flag *model.Flag) (bool, error) {
	err := s.dbtx.QueryRow(ctx, `
		INSERT INTO comment_flags (id, comment_id, actor_key, kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (comment_id, actor_key, kind) DO NOTHING
		RETURNING id, created_at`,
		flag.ID, flag.CommentID, flag.ActorKey, string(flag.Kind)).
		Scan(&flag.ID, &flag.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *flagStore) Delete(ctx context.Context, commentID int64, actorKey string, kind model.FlagKind) (bool, error) {
	tag, err := s.dbtx.Exec(ctx, `
		DELETE FROM comment_flags
		WHERE comment_id = $1 AND actor_key = $2 AND kind = $3`,
		commentID, actorKey, string(kind))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *flagStore) Counts(ctx context.Context, commentID int64) (int64, int64, error) {
	var likes, dislikes int64
	err := s.dbtx.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE kind = 'like'),
		       COUNT(*) FILTER (WHERE kind = 'dislike')
		FROM comment_flags
		WHERE comment_id = $1`,
		commentID).Scan(&likes, &dislikes)
	return likes, dislikes, err
}
