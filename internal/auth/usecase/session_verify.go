package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

type VerifyCodeInput struct {
	SessionID string
	Code      string `validate:"required,otpcode"`
}

type VerifyCodeOutput struct {
	UserID      int64
	Email       string
	AccessToken string
}

func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if n := s.code.Digits(); len(in.Code) != n {
		return nil, goerror.NewInvalidInput(nil, "code", fmt.Sprintf("Code must be a %d digit code", n))
	}

	if in.SessionID == "" {
		return nil, sessionFailure(ctx, "", entity.ErrMissingSessionEmail)
	}

	return s.verify(ctx, in.SessionID, in.Code, false)
}

// verify runs one attempt against the stored session in a single atomic
// update and promotes the session when the code matched. A link code that no
// longer matches was superseded by a resend and is rejected without spending
// an attempt.
func (s *Usecase) verify(ctx context.Context, sessionID, code string, fromLink bool) (*VerifyCodeOutput, error) {
	now := s.clock.Now()

	var (
		outcome error
		email   string
	)
	err := s.repoSession.UpdateSession(ctx, sessionID, func(sess *entity.Session) error {
		email = sess.Email
		if email == "" {
			outcome = entity.ErrMissingSessionEmail
			return nil
		}

		if fromLink {
			if outcome = sess.Check(now); outcome != nil {
				return nil
			}
			if !s.hash.Verify(sess.CodeHash, code) {
				outcome = entity.ErrInvalidMagicLink
				return nil
			}
		}

		outcome = sess.Attempt(now, func(codeHash string) bool {
			return s.hash.Verify(codeHash, code)
		})
		return nil
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, sessionFailure(ctx, sessionID, entity.ErrMissingSessionEmail)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update session", "session_id", sessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if outcome != nil {
		return nil, sessionFailure(ctx, sessionID, outcome)
	}

	return s.promote(ctx, sessionID, email)
}

// promote turns a verified session into a user and an access token, then
// destroys the session.
func (s *Usecase) promote(ctx context.Context, sessionID, email string) (*VerifyCodeOutput, error) {
	now := s.clock.Now()

	user, err := s.repoUser.UpsertUserByEmail(ctx, entity.User{
		ID:        s.uid.Generate(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert user", "session_id", sessionID, "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoSession.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		// VERIFIED is terminal, a leftover record cannot be verified again
		slog.ErrorContext(ctx, "failed to repo delete verified session", "session_id", sessionID, "error", err)
	}

	slog.InfoContext(ctx, "session verified", "session_id", sessionID, "user_id", user.ID)

	return &VerifyCodeOutput{UserID: user.ID, Email: user.Email, AccessToken: token}, nil
}
