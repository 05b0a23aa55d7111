package notification

import (
	"context"

	"github.com/shandysiswandi/folio/internal/notification/inbound"
	"github.com/shandysiswandi/folio/internal/notification/outbound/email"
	"github.com/shandysiswandi/folio/internal/notification/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goroutine"
	"github.com/shandysiswandi/folio/internal/pkg/idempotency"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/mail"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Consumer         `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:    email.New(dep.Mail, dep.Instrument),
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
