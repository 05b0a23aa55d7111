package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

type StartSessionInput struct {
	Email string
	// PreviousSessionID is discarded so one client holds one code at a time.
	PreviousSessionID string
}

type StartSessionOutput struct {
	SessionID   string
	Email       string
	ExpiresAt   time.Time
	MaxAttempts int
}

func (s *Usecase) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "StartSession")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if tag, ok := s.validator.Var(email, "required,email"); !ok {
		if tag == "required" {
			return nil, entity.ErrRequiredEmail
		}
		slog.WarnContext(ctx, "email rejected by format check", "email", email)
		return nil, entity.ErrInvalidEmail
	}

	if in.PreviousSessionID != "" {
		if err := s.repoSession.DeleteSession(ctx, in.PreviousSessionID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete previous session", "session_id", in.PreviousSessionID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	now := s.clock.Now()
	ttl := s.codeTTL()
	id := s.sid.Generate()

	code, codeHash, link, err := s.issue(ctx, id, now.Add(ttl))
	if err != nil {
		return nil, err
	}

	sess := entity.NewSession(id, email, codeHash, now, ttl, s.maxAttempts())
	if err := s.repoSession.CreateSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "session_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeIssued(ctx, CodeIssuedEvent{
		SessionID: id,
		Email:     email,
		Code:      code,
		MagicLink: link,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code issued", "session_id", id, "error", err)

		if err := s.repoSession.DeleteSession(ctx, id); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete undelivered session", "session_id", id, "error", err)
		}

		return nil, entity.ErrDeliveryFailed
	}

	return &StartSessionOutput{
		SessionID:   id,
		Email:       maskEmail(email),
		ExpiresAt:   sess.ExpiresAt,
		MaxAttempts: sess.MaxAttempts,
	}, nil
}
