package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

type RestartInput struct {
	SessionID string
}

// Restart discards the session whatever its state. Restarting without a
// session is not an error.
func (s *Usecase) Restart(ctx context.Context, in RestartInput) error {
	ctx, span := s.startSpan(ctx, "Restart")
	defer span.End()

	if in.SessionID == "" {
		return nil
	}

	if err := s.repoSession.DeleteSession(ctx, in.SessionID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete session", "session_id", in.SessionID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
