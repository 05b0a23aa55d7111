package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/notification/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goroutine"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/messaging"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/shared/event"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	mu   sync.Mutex
	got  []usecase.ConsumeCodeIssuedInput
	cids []string
	err  error
}

func (f *fakeUC) ConsumeCodeIssued(ctx context.Context, in usecase.ConsumeCodeIssuedInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	f.cids = append(f.cids, instrument.GetCorrelationID(ctx))
	return f.err
}

func (f *fakeUC) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                { return m.body }
func (m fakeMessage) Key() []byte                 { return nil }
func (m fakeMessage) Headers() []messaging.Header { return m.headers }
func (m fakeMessage) Topic() string               { return event.AuthCodeIssuedTopic }
func (m fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error   { return nil }
func (m fakeMessage) Nack(context.Context) error  { return nil }

func (m fakeMessage) Header(key string) string {
	for _, h := range m.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func issuedPayload(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(event.AuthCodeIssuedMessage{
		SessionID: "sid-1",
		Email:     "jane@example.com",
		Code:      "123456",
		MagicLink: "https://folio.dev/auth/magic-link?token=abc",
		IssuedAt:  1772355600000,
		ExpiresAt: 1772356200000,
	})
	require.NoError(t, err)

	return body
}

func TestAuthCodeIssuedNotification(t *testing.T) {
	uc := &fakeUC{}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

	err := h.AuthCodeIssuedNotification(context.Background(), fakeMessage{
		body:    issuedPayload(t),
		headers: []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: []byte("cid-42")}},
	})
	require.NoError(t, err)
	require.Len(t, uc.got, 1)

	in := uc.got[0]
	require.Equal(t, "sid-1", in.SessionID)
	require.Equal(t, "123456", in.Code)
	require.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), in.IssuedAt)
	require.Equal(t, time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC), in.ExpiresAt)
	require.Equal(t, "code-issued:sid-1:1772355600000", in.IdempotencyKey)
	require.Equal(t, "cid-42", uc.cids[0])
}

func TestAuthCodeIssuedNotificationMalformedIsAcked(t *testing.T) {
	uc := &fakeUC{}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

	require.NoError(t, h.AuthCodeIssuedNotification(context.Background(), fakeMessage{body: []byte("{")}))
	require.Zero(t, uc.calls())
}

func TestAuthCodeIssuedNotificationPropagatesFailure(t *testing.T) {
	uc := &fakeUC{err: errors.New("smtp down")}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

	require.Error(t, h.AuthCodeIssuedNotification(context.Background(), fakeMessage{body: issuedPayload(t)}))
	require.NotEmpty(t, uc.cids[0])
}

func TestRegisterMQConsumerOverMemoryBroker(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    concurrency: 2\n"))
	require.NoError(t, err)

	broker := messaging.NewMemory()
	routine := goroutine.NewManager(4)
	uc := &fakeUC{}

	ctx, cancel := context.WithCancel(context.Background())
	RegisterMQConsumer(ctx, cfg, routine, broker, uid.NewUUID(), uc, instrument.NewNoop())

	body := issuedPayload(t)
	require.Eventually(t, func() bool {
		if uc.calls() > 0 {
			return true
		}
		_, _ = broker.Publish(ctx, event.AuthCodeIssuedTopic, messaging.OutgoingMessage{Body: body})
		return false
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, routine.Wait())
	require.NoError(t, broker.Close())
}
