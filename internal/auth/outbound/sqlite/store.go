// Package sqlite stores promoted users in a single SQLite file, for
// deployments that run without postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS auth_users (
	id         INTEGER PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

const (
	queryUpsertUser = `
INSERT INTO auth_users (id, email, first_name, last_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET email = excluded.email
RETURNING id, email, first_name, last_name, created_at, updated_at`

	queryGetUserByID = `
SELECT id, email, first_name, last_name, created_at, updated_at
FROM auth_users WHERE id = ?`

	queryUpdateUserName = `
UPDATE auth_users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`
)

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

type Store struct {
	db  *sql.DB
	ins instrument.Instrumentation
}

// Open opens the database file at path and creates the schema.
func Open(ctx context.Context, path string, ins instrument.Instrumentation) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, ins: ins}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.sqlite").Start(ctx, name)
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return goerror.ErrNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*entity.User, error) {
	var (
		out                  entity.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &createdAt, &updatedAt); err != nil {
		return nil, mapError(err)
	}

	out.CreatedAt = fromMillis(createdAt)
	out.UpdatedAt = fromMillis(updatedAt)

	return &out, nil
}

func (s *Store) UpsertUserByEmail(ctx context.Context, user entity.User) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "UpsertUserByEmail")
	defer func() { s.endSpan(span, err) }()

	return scanUser(s.db.QueryRowContext(ctx, queryUpsertUser,
		user.ID, user.Email, user.FirstName, user.LastName, toMillis(user.CreatedAt), toMillis(user.UpdatedAt)))
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	return scanUser(s.db.QueryRowContext(ctx, queryGetUserByID, id))
}

func (s *Store) UpdateUserName(ctx context.Context, id int64, firstName, lastName string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserName")
	defer func() { s.endSpan(span, err) }()

	res, err := s.db.ExecContext(ctx, queryUpdateUserName, firstName, lastName, toMillis(at), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
