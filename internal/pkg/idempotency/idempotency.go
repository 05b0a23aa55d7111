// Package idempotency guards side effects that may be triggered more than once,
// such as redelivered broker messages, with a small state machine kept in redis.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInProgress       = errors.New("operation already in progress")
	ErrAlreadyCompleted = errors.New("operation already completed")
	ErrInvalidState     = errors.New("invalid idempotency state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string { return string(s) }

const (
	defaultPrefix       = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Tracker stores one key per operation. A failed operation releases its key so
// the next delivery can run it again.
type Tracker struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable) *Tracker {
	return &Tracker{client: client, prefix: defaultPrefix}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress marker survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed marker is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// Acquire marks key as in progress. StateNone means the caller owns the key.
func (t *Tracker) Acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	fk := t.prefix + key

	for range 2 {
		ok, err := t.client.SetNX(ctx, fk, StateInProgress.String(), lock).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return StateNone, nil
		}

		current, err := t.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return "", err
		}

		switch State(current) {
		case StateInProgress, StateCompleted:
			return State(current), nil
		default:
			return "", ErrInvalidState
		}
	}

	return "", ErrInvalidState
}

func (t *Tracker) Complete(ctx context.Context, key string, ttl time.Duration) error {
	return t.client.Set(ctx, t.prefix+key, StateCompleted.String(), ttl).Err()
}

func (t *Tracker) Release(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}

// Exec runs fn at most once per key until the completed marker expires.
func (t *Tracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, t.Release(ctx, key))
	}

	return t.Complete(ctx, key, o.stateTTL)
}
