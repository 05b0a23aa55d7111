package usecase

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/idempotency"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/mail"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

//go:embed template/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "template/*.html"))

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail    repoMail
	idempotency idempotency.Idempotency
	cfg         config.Config
	clock       clock.Clocker
	validator   validator.Validator
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Config      config.Config
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		cfg:         dep.Config,
		clock:       dep.Clock,
		validator:   dep.Validator,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"app_name":      s.cfg.GetString("app.name"),
		"support_email": s.cfg.GetString("app.support_email"),
		"year":          s.clock.Now().Format("2006"),
	}
}
