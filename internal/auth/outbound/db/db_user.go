package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

const (
	// the no-op update makes RETURNING yield the existing row on conflict
	queryUpsertUser = `
INSERT INTO auth_users (id, email, first_name, last_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING id, email, first_name, last_name, created_at, updated_at`

	queryGetUserByID = `
SELECT id, email, first_name, last_name, created_at, updated_at
FROM auth_users WHERE id = $1`

	queryUpdateUserName = `
UPDATE auth_users SET first_name = $2, last_name = $3, updated_at = $4 WHERE id = $1`
)

func (s *DB) UpsertUserByEmail(ctx context.Context, user entity.User) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "UpsertUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var out entity.User
	err = s.conn.QueryRow(ctx, queryUpsertUser,
		user.ID, user.Email, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt,
	).Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var out entity.User
	err = s.conn.QueryRow(ctx, queryGetUserByID, id).
		Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) UpdateUserName(ctx context.Context, id int64, firstName, lastName string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserName")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateUserName, id, firstName, lastName, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
