package inbound

import (
	"context"

	"github.com/shandysiswandi/folio/internal/notification/usecase"
)

type uc interface {
	ConsumeCodeIssued(ctx context.Context, in usecase.ConsumeCodeIssuedInput) error
}
