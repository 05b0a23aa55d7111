package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/folio/internal/pkg/idempotency"
	"github.com/shandysiswandi/folio/internal/pkg/mail"
)

type ConsumeCodeIssuedInput struct {
	SessionID      string `validate:"required"`
	Email          string `validate:"required,email"`
	Code           string `validate:"required"`
	MagicLink      string `validate:"omitempty,url"`
	IssuedAt       time.Time
	ExpiresAt      time.Time `validate:"required"`
	IdempotencyKey string    `validate:"required"`
}

// ConsumeCodeIssued mails a sign-in code once per issuance. Invalid or stale
// events are dropped. The send is retried in process up to smtp.retry_max
// times; a final failure is returned, which only brokers with redelivery act on.
func (s *Usecase) ConsumeCodeIssued(ctx context.Context, in ConsumeCodeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCodeIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "session_id", in.SessionID, "error", err)
		return nil
	}

	now := s.clock.Now()
	if now.After(in.ExpiresAt) {
		slog.WarnContext(ctx, "code expired before delivery", "session_id", in.SessionID, "expires_at", in.ExpiresAt)
		return nil
	}

	expiresIn := int(math.Ceil(in.ExpiresAt.Sub(now).Minutes()))

	data := s.baseEmailTemplateData()
	data["code"] = in.Code
	data["magic_link"] = in.MagicLink
	data["expires_in"] = expiresIn

	body, err := s.renderTemplate("code_issued.html", data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "session_id", in.SessionID, "error", err)
		return err
	}

	msg := mail.Message{
		To:       []string{in.Email},
		Subject:  fmt.Sprintf("Your %s sign-in code", s.cfg.GetString("app.name")),
		TextBody: textBody(in.Code, in.MagicLink, expiresIn),
		HTMLBody: body,
	}

	err = s.idempotency.Exec(ctx, in.IdempotencyKey, func(ctx context.Context) error {
		return s.send(ctx, msg)
	})
	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrInProgress):
		slog.InfoContext(ctx, "code email already handled", "session_id", in.SessionID, "error", err)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send code email", "session_id", in.SessionID, "error", err)
		return err
	}

	return nil
}

func (s *Usecase) send(ctx context.Context, msg mail.Message) error {
	backoff := time.Duration(s.cfg.GetInt("smtp.retry_backoff_ms")) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	b := retry.WithMaxRetries(uint64(max(s.cfg.GetInt("smtp.retry_max"), 0)), retry.NewExponential(backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "send attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func textBody(code, link string, expiresIn int) string {
	body := fmt.Sprintf("Your sign-in code is %s\n\nIt expires in %d minutes.", code, expiresIn)
	if link != "" {
		body += "\n\nOr sign in with this link: " + link
	}
	return body + "\n\nIf you did not request it, you can ignore this email.\n"
}
