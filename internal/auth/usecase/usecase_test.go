package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/hash"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/shandysiswandi/folio/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu     sync.Mutex
	data   map[string]entity.Session
	writes int
	err    error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]entity.Session{}}
}

func (f *fakeSessions) CreateSession(_ context.Context, sess entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[sess.ID] = sess
	f.writes++
	return nil
}

func (f *fakeSessions) UpdateSession(_ context.Context, id string, fn func(*entity.Session) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	sess, ok := f.data[id]
	if !ok {
		return goerror.ErrNotFound
	}

	before := sess
	if err := fn(&sess); err != nil {
		return err
	}
	if sess != before {
		f.data[id] = sess
		f.writes++
	}
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.data, id)
	return nil
}

func (f *fakeSessions) get(id string) (entity.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	return s, ok
}

type fakeUsers struct {
	byEmail map[string]*entity.User
	err     error
}

func (f *fakeUsers) UpsertUserByEmail(_ context.Context, user entity.User) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byEmail[user.Email]; ok {
		return u, nil
	}
	f.byEmail[user.Email] = &user
	return &user, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeUsers) UpdateUserName(_ context.Context, id int64, first, last string, at time.Time) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.FirstName, u.LastName, u.UpdatedAt = first, last, at
			return nil
		}
	}
	return goerror.ErrNotFound
}

type fakeMessaging struct {
	events []CodeIssuedEvent
	err    error
}

func (f *fakeMessaging) PublishCodeIssued(_ context.Context, ev CodeIssuedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type sequenceCode struct{ codes []string }

func (s *sequenceCode) GenerateCode() (string, error) {
	if len(s.codes) == 0 {
		return "", errors.New("no more codes")
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

func (s *sequenceCode) Digits() int { return 6 }

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 { s.n++; return s.n }

type suite struct {
	uc       *Usecase
	clock    *clock.Fixed
	sessions *fakeSessions
	users    *fakeUsers
	mq       *fakeMessaging
	codes    *sequenceCode
	signer   *jwt.Symmetric
}

const testConfig = `
otp:
  ttl_minute: 10
  max_attempts: 3
magic_link:
  base_url: https://folio.dev/auth/magic-link
`

func newSuite(t *testing.T, codes ...string) *suite {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "folio",
		Audiences: []string{"folio-web"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	st := &suite{
		clock:    clk,
		sessions: newFakeSessions(),
		users:    &fakeUsers{byEmail: map[string]*entity.User{}},
		mq:       &fakeMessaging{},
		codes:    &sequenceCode{codes: codes},
		signer:   signer,
	}
	st.uc = New(Dependency{
		RepoSession:   st.sessions,
		RepoUser:      st.users,
		RepoMessaging: st.mq,
		Validator:     v,
		Config:        cfg,
		Hash:          hash.NewHMACSHA256([]byte("otp-secret")),
		Code:          st.codes,
		UID:           &seqID{},
		SessionID:     uid.NewToken(16),
		Clock:         clk,
		JWT:           signer,
		Links:         signer,
		Instrument:    instrument.NewNoop(),
	})

	return st
}

func (st *suite) start(t *testing.T, email string) string {
	t.Helper()

	out, err := st.uc.StartSession(context.Background(), StartSessionInput{Email: email})
	require.NoError(t, err)
	return out.SessionID
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, reason, goerror.ReasonOf(err), "got %v", err)
}
