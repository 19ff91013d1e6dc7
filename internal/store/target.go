package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"commentary.app/comments/core/db"
	"commentary.app/comments/internal/model"
)

type targetStore struct {
	dbtx db.DBTX
}

func newTargetStore(dbtx db.DBTX) TargetStore {
	return &targetStore{dbtx: dbtx}
}

const targetColumns = `id, target_type, external_ref, title, url, created_at`

func (s *targetStore) GetByID(ctx context.Context, id int64) (*model.Target, error) {
	row := s.dbtx.QueryRow(ctx,
		`SELECT `+targetColumns+` FROM targets WHERE id = $1`, id)
	return scanTarget(row)
}

func (s *targetStore) GetByRef(ctx context.Context, externalRef string) (*model.Target, error) {
	row := s.dbtx.QueryRow(ctx,
		`SELECT `+targetColumns+` FROM targets WHERE external_ref = $1`, externalRef)
	return scanTarget(row)
}

func (s *targetStore) Upsert(ctx context.Context, target *model.Target) error {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO targets (id, target_type, external_ref, title, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_ref)
		DO UPDATE SET target_type = EXCLUDED.target_type,
		              title       = EXCLUDED.title,
		              url         = EXCLUDED.url
		RETURNING `+targetColumns,
		target.ID, target.TargetType, target.ExternalRef, target.Title, target.URL)

	saved, err := scanTarget(row)
	if err != nil {
		return err
	}
	*target = *saved
	return nil
}

func scanTarget(row pgx.Row) (*model.Target, error) {
	var t model.Target
	err := row.Scan(&t.ID, &t.TargetType, &t.ExternalRef, &t.Title, &t.URL, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
