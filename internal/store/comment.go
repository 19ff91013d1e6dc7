package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"commentary.app/comments/core/db"
	"commentary.app/comments/internal/model"
)

type commentStore struct {
	dbtx db.DBTX
}

func newCommentStore(dbtx db.DBTX) CommentStore {
	return &commentStore{dbtx: dbtx}
}

const commentColumns = `id, target_id, thread_id, parent_id, level, ord, user_id,
	user_name, user_email, user_url, body, is_public, is_removed,
	wants_followup, submitted_at, created_at`

func (s *commentStore) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := s.dbtx.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	return scanComment(row)
}

func (s *commentStore) GetByNaturalKey(ctx context.Context, targetID int64, email string, submittedAt time.Time) (*model.Comment, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE target_id = $1 AND user_email = $2 AND submitted_at = $3`,
		targetID, email, submittedAt)
	return scanComment(row)
}

func (s *commentStore) Create(ctx context.Context, c *model.Comment) (bool, error) {
	// ord is materialized here: the next slot in the thread's flattened
	// order. The natural-key conflict clause makes a concurrent confirm of
	// the same token a no-op for the loser.
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO comments (id, target_id, thread_id, parent_id, level, ord,
			user_id, user_name, user_email, user_url, body,
			is_public, is_removed, wants_followup, submitted_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(ord), 0) + 1 FROM comments
			 WHERE target_id = $2 AND thread_id = $3),
			$6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (target_id, user_email, submitted_at) DO NOTHING
		RETURNING `+commentColumns,
		c.ID, c.TargetID, c.ThreadID, c.ParentID, c.Level,
		c.UserID, c.UserName, c.UserEmail, c.UserURL, c.Body,
		c.IsPublic, c.IsRemoved, c.WantsFollowup, c.SubmittedAt)

	saved, err := scanComment(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Conflict on the natural key: somebody else won the insert.
			return false, nil
		}
		return false, err
	}
	*c = *saved
	return true, nil
}

func (s *commentStore) MarkRemoved(ctx context.Context, id int64) error {
	tag, err := s.dbtx.Exec(ctx,
		`UPDATE comments SET is_removed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *commentStore) ListByTarget(ctx context.Context, targetID int64, includeRemoved bool) ([]model.Comment, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE target_id = $1 AND is_public
		  AND ($2 OR NOT is_removed)
		ORDER BY thread_id, ord`,
		targetID, includeRemoved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (s *commentStore) CountByTarget(ctx context.Context, targetID int64) (int64, error) {
	var count int64
	err := s.dbtx.QueryRow(ctx, `
		SELECT COUNT(*) FROM comments
		WHERE target_id = $1 AND is_public AND NOT is_removed`,
		targetID).Scan(&count)
	return count, err
}

func (s *commentStore) Followers(ctx context.Context, targetID int64, excludeEmail string) ([]Follower, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT DISTINCT ON (lower(c.user_email)) c.user_email, c.user_name
		FROM comments c
		WHERE c.target_id = $1
		  AND c.wants_followup
		  AND c.is_public AND NOT c.is_removed
		  AND c.user_email <> ''
		  AND lower(c.user_email) <> lower($2)
		  AND NOT EXISTS (
			SELECT 1 FROM thread_mutes m
			WHERE m.target_id = c.target_id
			  AND m.email = lower(c.user_email)
		  )
		ORDER BY lower(c.user_email), c.submitted_at`,
		targetID, excludeEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followers []Follower
	for rows.Next() {
		var f Follower
		if err := rows.Scan(&f.Email, &f.Name); err != nil {
			return nil, err
		}
		followers = append(followers, f)
	}
	return followers, rows.Err()
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.TargetID, &c.ThreadID, &c.ParentID, &c.Level,
		&c.Order, &c.UserID, &c.UserName, &c.UserEmail, &c.UserURL, &c.Body,
		&c.IsPublic, &c.IsRemoved, &c.WantsFollowup, &c.SubmittedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
