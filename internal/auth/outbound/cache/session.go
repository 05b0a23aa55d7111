// Package cache keeps verification sessions in redis. Every session is one
// hash; updates run as WATCH/MULTI transactions so concurrent submissions on
// the same session are serialized by redis itself.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix = "auth:session:"

	// retention keeps a terminal session readable for a while after its code
	// expired, so clients still get the matching notice.
	defaultRetention = 30 * time.Minute

	maxTxRetries = 5
)

// ErrContention is returned when the optimistic transaction kept losing.
var ErrContention = errors.New("session update contention")

type record struct {
	Email       string `redis:"email"`
	CodeHash    string `redis:"code_hash"`
	IssuedAt    int64  `redis:"issued_at"`
	ExpiresAt   int64  `redis:"expires_at"`
	Attempts    int    `redis:"attempts"`
	MaxAttempts int    `redis:"max_attempts"`
	Status      int16  `redis:"status"`
}

func toRecord(s entity.Session) record {
	return record{
		Email:       s.Email,
		CodeHash:    s.CodeHash,
		IssuedAt:    s.IssuedAt.UnixMilli(),
		ExpiresAt:   s.ExpiresAt.UnixMilli(),
		Attempts:    s.Attempts,
		MaxAttempts: s.MaxAttempts,
		Status:      int16(s.Status),
	}
}

func (r record) toEntity(id string) entity.Session {
	return entity.Session{
		ID:          id,
		Email:       r.Email,
		CodeHash:    r.CodeHash,
		IssuedAt:    time.UnixMilli(r.IssuedAt).UTC(),
		ExpiresAt:   time.UnixMilli(r.ExpiresAt).UTC(),
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		Status:      entity.SessionStatus(r.Status).Ensure(),
	}
}

type Session struct {
	client    *redis.Client
	ins       instrument.Instrumentation
	retention time.Duration
}

func NewSession(client *redis.Client, ins instrument.Instrumentation, retention time.Duration) *Session {
	if retention <= 0 {
		retention = defaultRetention
	}

	return &Session{client: client, ins: ins, retention: retention}
}

func (c *Session) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Session) CreateSession(ctx context.Context, sess entity.Session) error {
	ctx, span := c.startSpan(ctx, "CreateSession")
	defer span.End()

	key := keyPrefix + sess.ID
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, toRecord(sess))
		p.ExpireAt(ctx, key, sess.ExpiresAt.Add(c.retention))
		return nil
	})
	if err != nil {
		return fail(span, err)
	}

	return nil
}

// UpdateSession applies fn under WATCH and commits only if nobody else wrote
// the key meanwhile. Lost races are retried with a fresh read.
func (c *Session) UpdateSession(ctx context.Context, id string, fn func(*entity.Session) error) error {
	ctx, span := c.startSpan(ctx, "UpdateSession")
	defer span.End()

	key := keyPrefix + id
	txf := func(tx *redis.Tx) error {
		sess, err := read(ctx, tx, id)
		if err != nil {
			return err
		}

		before := sess
		if err := fn(&sess); err != nil {
			return err
		}
		if sess == before {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, toRecord(sess))
			p.ExpireAt(ctx, key, sess.ExpiresAt.Add(c.retention))
			return nil
		})
		return err
	}

	b := retry.WithMaxRetries(maxTxRetries, retry.NewExponential(5*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		err = errors.Join(ErrContention, err)
	}
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		return fail(span, err)
	}

	return err
}

func (c *Session) DeleteSession(ctx context.Context, id string) error {
	ctx, span := c.startSpan(ctx, "DeleteSession")
	defer span.End()

	n, err := c.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fail(span, err)
	}
	if n == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func read(ctx context.Context, r redis.Cmdable, id string) (entity.Session, error) {
	cmd := r.HGetAll(ctx, keyPrefix+id)
	vals, err := cmd.Result()
	if err != nil {
		return entity.Session{}, err
	}
	if len(vals) == 0 {
		return entity.Session{}, goerror.ErrNotFound
	}

	var rec record
	if err := cmd.Scan(&rec); err != nil {
		return entity.Session{}, err
	}

	return rec.toEntity(id), nil
}
