package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/hash"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/shandysiswandi/folio/internal/pkg/otp"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultCodeTTL     = 10 * time.Minute
	defaultMaxAttempts = 5
)

// CodeIssuedEvent is handed to the delivery transport for every new code.
type CodeIssuedEvent struct {
	SessionID string
	Email     string
	Code      string
	MagicLink string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type repoMessaging interface {
	PublishCodeIssued(ctx context.Context, ev CodeIssuedEvent) error
}

// repoSession is the session store. UpdateSession must apply fn and persist
// the result as one atomic compare-and-swap, writing only when fn changed the
// session. Missing sessions yield goerror.ErrNotFound.
type repoSession interface {
	CreateSession(ctx context.Context, sess entity.Session) error
	UpdateSession(ctx context.Context, id string, fn func(sess *entity.Session) error) error
	DeleteSession(ctx context.Context, id string) error
}

type repoUser interface {
	UpsertUserByEmail(ctx context.Context, user entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateUserName(ctx context.Context, id int64, firstName, lastName string, at time.Time) error
}

type validate interface {
	Validate(data any) error
	Var(value any, tag string) (failedTag string, ok bool)
}

type Usecase struct {
	repoSession   repoSession
	repoUser      repoUser
	repoMessaging repoMessaging
	validator     validate
	cfg           config.Config
	hash          hash.Hash
	code          otp.Generator
	uid           uid.NumberID
	sid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	links         jwt.LinkSigner
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoSession   repoSession
	RepoUser      repoUser
	RepoMessaging repoMessaging
	Validator     validate
	Config        config.Config
	Hash          hash.Hash
	Code          otp.Generator
	UID           uid.NumberID
	SessionID     uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Links         jwt.LinkSigner
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoSession:   dep.RepoSession,
		repoUser:      dep.RepoUser,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hash:          dep.Hash,
		code:          dep.Code,
		uid:           dep.UID,
		sid:           dep.SessionID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		links:         dep.Links,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	if ttl := s.cfg.GetMinute("otp.ttl_minute"); ttl > 0 {
		return ttl
	}
	return defaultCodeTTL
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

// issue generates a code, its hash and the magic link that carries it.
func (s *Usecase) issue(ctx context.Context, sessionID string, expiresAt time.Time) (code, codeHash, link string, err error) {
	code, err = s.code.GenerateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "session_id", sessionID, "error", err)
		return "", "", "", goerror.NewServer(err)
	}

	token, err := s.links.GenerateLink(sessionID, code, expiresAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign magic link", "session_id", sessionID, "error", err)
		return "", "", "", goerror.NewServer(err)
	}

	return code, s.hash.Hash(code), s.magicLinkURL(token), nil
}

// sessionFailure logs a taxonomy failure at warn level and passes it on.
func sessionFailure(ctx context.Context, sessionID string, err error) error {
	slog.WarnContext(ctx, "session rejected", "session_id", sessionID, "reason", goerror.ReasonOf(err))
	return err
}

// maskEmail keeps the first rune of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return instrument.Masked
	}

	r, _ := utf8.DecodeRuneInString(email)
	return string(r) + instrument.Masked + email[at:]
}
