package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

type SessionStatusInput struct {
	SessionID string
}

type SessionStatusOutput struct {
	Status            entity.SessionStatus
	Email             string
	ExpiresAt         time.Time
	AttemptsRemaining int
	Notice            entity.Notice
}

// SessionStatus reports where a session stands. Reading a pending session past
// its deadline records the EXPIRED transition.
func (s *Usecase) SessionStatus(ctx context.Context, in SessionStatusInput) (*SessionStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionStatus")
	defer span.End()

	if in.SessionID == "" {
		return nil, sessionFailure(ctx, "", entity.ErrMissingSessionEmail)
	}

	now := s.clock.Now()

	var snapshot entity.Session
	err := s.repoSession.UpdateSession(ctx, in.SessionID, func(sess *entity.Session) error {
		sess.Expire(now)
		snapshot = *sess
		return nil
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, sessionFailure(ctx, in.SessionID, entity.ErrMissingSessionEmail)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update session", "session_id", in.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	notice := entity.NoticeForStatus(snapshot.Status)
	if snapshot.Status == entity.SessionStatusPending && snapshot.CodeHash == "" {
		notice = entity.NoticeInvalidSession
	}

	return &SessionStatusOutput{
		Status:            snapshot.Status,
		Email:             maskEmail(snapshot.Email),
		ExpiresAt:         snapshot.ExpiresAt,
		AttemptsRemaining: snapshot.RemainingAttempts(),
		Notice:            notice,
	}, nil
}
