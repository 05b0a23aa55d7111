package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
)

type ProfileUpdateInput struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"omitempty,max=100"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	err := s.repoUser.UpdateUserName(ctx, clm.UserID, in.FirstName, in.LastName, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user name", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
