package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/idempotency"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/mail"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent     []mail.Message
	err      error
	failures int
	calls    int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp: 421 try again later")
	}
	f.sent = append(f.sent, msg)
	return nil
}

// memoryIdempotency mirrors the redis tracker: completed keys short-circuit,
// failed runs release the key.
type memoryIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (m *memoryIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()

	return nil
}

var issuedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestUsecase(t *testing.T) (*Usecase, *fakeMail, *clock.Fixed) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: folio\n  support_email: hello@folio.dev\nsmtp:\n  retry_max: 2\n  retry_backoff_ms: 1\n"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(issuedAt.Add(5 * time.Second))
	fm := &fakeMail{}

	uc := NewNotification(Dependency{
		RepoMail:    fm,
		Idempotency: &memoryIdempotency{done: map[string]bool{}},
		Config:      cfg,
		Clock:       clk,
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	return uc, fm, clk
}

func validInput() ConsumeCodeIssuedInput {
	return ConsumeCodeIssuedInput{
		SessionID:      "sid-1",
		Email:          "jane@example.com",
		Code:           "123456",
		MagicLink:      "https://folio.dev/auth/magic-link?token=abc",
		IssuedAt:       issuedAt,
		ExpiresAt:      issuedAt.Add(10 * time.Minute),
		IdempotencyKey: "code-issued:sid-1:1772355600000",
	}
}

func TestConsumeCodeIssued(t *testing.T) {
	uc, fm, _ := newTestUsecase(t)

	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.Len(t, fm.sent, 1)

	msg := fm.sent[0]
	require.Equal(t, []string{"jane@example.com"}, msg.To)
	require.Equal(t, "Your folio sign-in code", msg.Subject)
	require.Contains(t, msg.HTMLBody, "123456")
	require.Contains(t, msg.HTMLBody, "https://folio.dev/auth/magic-link?token=abc")
	require.Contains(t, msg.HTMLBody, "expires in 10 minutes")
	require.Contains(t, msg.HTMLBody, "hello@folio.dev")
	require.Contains(t, msg.TextBody, "123456")
}

func TestConsumeCodeIssuedRedeliverySendsOnce(t *testing.T) {
	uc, fm, _ := newTestUsecase(t)

	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.Len(t, fm.sent, 1)

	next := validInput()
	next.IdempotencyKey = "code-issued:sid-1:1772355660000"
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), next))
	require.Len(t, fm.sent, 2)
}

func TestConsumeCodeIssuedSendFailureIsRetryable(t *testing.T) {
	uc, fm, _ := newTestUsecase(t)
	fm.err = errors.New("smtp down")

	require.Error(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.Equal(t, 3, fm.calls)

	fm.err = nil
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.Len(t, fm.sent, 1)
}

func TestConsumeCodeIssuedRetriesTransientSendFailure(t *testing.T) {
	uc, fm, _ := newTestUsecase(t)
	fm.failures = 2

	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))
	require.Equal(t, 3, fm.calls)
	require.Len(t, fm.sent, 1)
}

func TestConsumeCodeIssuedDropsStaleAndInvalid(t *testing.T) {
	uc, fm, clk := newTestUsecase(t)

	bad := validInput()
	bad.Email = "not-an-email"
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), bad))

	clk.Advance(11 * time.Minute)
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), validInput()))

	require.Empty(t, fm.sent)
}

func TestConsumeCodeIssuedWithoutLink(t *testing.T) {
	uc, fm, _ := newTestUsecase(t)

	in := validInput()
	in.MagicLink = ""
	require.NoError(t, uc.ConsumeCodeIssued(context.Background(), in))
	require.Len(t, fm.sent, 1)
	require.NotContains(t, fm.sent[0].HTMLBody, "one click")
	require.NotContains(t, fm.sent[0].TextBody, "link")
}
