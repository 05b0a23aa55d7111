package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

type ResendCodeInput struct {
	SessionID string
}

type ResendCodeOutput struct {
	ExpiresAt   time.Time
	MaxAttempts int
}

// ResendCode replaces the code of a pending session. Terminal sessions keep
// their outcome and must be restarted.
func (s *Usecase) ResendCode(ctx context.Context, in ResendCodeInput) (*ResendCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendCode")
	defer span.End()

	if in.SessionID == "" {
		return nil, sessionFailure(ctx, "", entity.ErrMissingSessionEmail)
	}

	now := s.clock.Now()
	ttl := s.codeTTL()

	code, codeHash, link, err := s.issue(ctx, in.SessionID, now.Add(ttl))
	if err != nil {
		return nil, err
	}

	var (
		outcome error
		issued  entity.Session
	)
	err = s.repoSession.UpdateSession(ctx, in.SessionID, func(sess *entity.Session) error {
		if sess.Email == "" {
			outcome = entity.ErrMissingSessionEmail
			return nil
		}

		outcome = sess.Reissue(codeHash, now, ttl)
		issued = *sess
		return nil
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, sessionFailure(ctx, in.SessionID, entity.ErrMissingSessionEmail)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update session", "session_id", in.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if outcome != nil {
		return nil, sessionFailure(ctx, in.SessionID, outcome)
	}

	if err := s.repoMessaging.PublishCodeIssued(ctx, CodeIssuedEvent{
		SessionID: in.SessionID,
		Email:     issued.Email,
		Code:      code,
		MagicLink: link,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code issued", "session_id", in.SessionID, "error", err)
		s.clearUndelivered(ctx, in.SessionID, codeHash)

		return nil, entity.ErrDeliveryFailed
	}

	return &ResendCodeOutput{ExpiresAt: issued.ExpiresAt, MaxAttempts: issued.MaxAttempts}, nil
}

// clearUndelivered drops a code nobody received, unless a newer one replaced it.
func (s *Usecase) clearUndelivered(ctx context.Context, sessionID, codeHash string) {
	err := s.repoSession.UpdateSession(ctx, sessionID, func(sess *entity.Session) error {
		if sess.CodeHash == codeHash {
			sess.ClearCode()
		}
		return nil
	})
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo clear undelivered code", "session_id", sessionID, "error", err)
	}
}
