package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/auth/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/clock"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/hash"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/shandysiswandi/folio/internal/pkg/router"
	"github.com/shandysiswandi/folio/internal/pkg/uid"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	sid      string
	gotSID   string
	gotCode  string
	verifyFn func() (*usecase.VerifyCodeOutput, error)
	linkOut  *usecase.VerifyMagicLinkOutput
	restarts int
}

func (s *stubUC) StartSession(_ context.Context, in usecase.StartSessionInput) (*usecase.StartSessionOutput, error) {
	s.gotSID = in.PreviousSessionID
	if in.Email == "" {
		return nil, entity.ErrRequiredEmail
	}
	return &usecase.StartSessionOutput{
		SessionID:   s.sid,
		Email:       "j***@example.com",
		ExpiresAt:   time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC),
		MaxAttempts: 5,
	}, nil
}

func (s *stubUC) SessionStatus(_ context.Context, in usecase.SessionStatusInput) (*usecase.SessionStatusOutput, error) {
	s.gotSID = in.SessionID
	return &usecase.SessionStatusOutput{Status: entity.SessionStatusLocked, Notice: entity.NoticeRateLimited}, nil
}

func (s *stubUC) VerifyCode(_ context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error) {
	s.gotSID, s.gotCode = in.SessionID, in.Code
	return s.verifyFn()
}

func (s *stubUC) ResendCode(_ context.Context, in usecase.ResendCodeInput) (*usecase.ResendCodeOutput, error) {
	s.gotSID = in.SessionID
	return &usecase.ResendCodeOutput{MaxAttempts: 5}, nil
}

func (s *stubUC) Restart(_ context.Context, in usecase.RestartInput) error {
	s.gotSID = in.SessionID
	s.restarts++
	return nil
}

func (s *stubUC) VerifyMagicLink(_ context.Context, in usecase.VerifyMagicLinkInput) (*usecase.VerifyMagicLinkOutput, error) {
	s.gotSID = in.SessionID
	return s.linkOut, nil
}

func (s *stubUC) Profile(context.Context) (*usecase.ProfileOutput, error) {
	return &usecase.ProfileOutput{ID: 7, Email: "jane@example.com"}, nil
}

func (s *stubUC) ProfileUpdate(context.Context, usecase.ProfileUpdateInput) error { return nil }

type envelope struct {
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Notice  string          `json:"notice"`
	Data    json.RawMessage `json:"data"`
}

func newEndpointSuite(t *testing.T, uc *stubUC) (*router.Router, *SessionCookie) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: folio\n"))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("k", 64)),
		Issuer: "folio",
		TTL:    time.Hour,
		Clock:  clock.New(),
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        signer,
		Instrument: instrument.NewNoop(),
		Public:     PublicEndpoints,
	})

	cookie := NewSessionCookie("_session", false, hash.NewHMACSHA256([]byte("cookie-secret")))
	RegisterHTTPEndpoint(r, uc, cookie)

	return r, cookie
}

func do(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)

	return rec, env
}

func TestStartSessionSetsSignedCookie(t *testing.T) {
	uc := &stubUC{sid: "9f2c4e7a1b"}
	r, cookie := newEndpointSuite(t, uc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sessions", strings.NewReader(`{"email":"jane@example.com"}`))
	rec, env := do(r, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, string(env.Data), "j***@example.com")
	require.NotContains(t, rec.Body.String(), "9f2c4e7a1b")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].HttpOnly)

	back := httptest.NewRequest(http.MethodGet, "/", nil)
	back.AddCookie(cookies[0])
	require.Equal(t, "9f2c4e7a1b", cookie.Read(&router.Request{Request: back}))
}

func TestStartSessionRequiredEmail(t *testing.T) {
	r, _ := newEndpointSuite(t, &stubUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sessions", strings.NewReader(`{"email":""}`))
	rec, env := do(r, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, entity.ReasonRequiredEmail, env.Reason)
}

func TestVerifyCodeFlow(t *testing.T) {
	uc := &stubUC{}
	r, cookie := newEndpointSuite(t, uc)
	sess := cookie.Set("s1")

	t.Run("RateLimited", func(t *testing.T) {
		uc.verifyFn = func() (*usecase.VerifyCodeOutput, error) { return nil, entity.ErrRateLimitExceeded }

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sessions/verify", strings.NewReader(`{"code":"123456"}`))
		req.AddCookie(sess)
		rec, env := do(r, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, entity.ReasonRateLimitExceeded, env.Reason)
		require.Equal(t, "s1", uc.gotSID)
		require.Equal(t, "123456", uc.gotCode)
	})

	t.Run("TamperedCookie", func(t *testing.T) {
		uc.verifyFn = func() (*usecase.VerifyCodeOutput, error) { return nil, entity.ErrMissingSessionEmail }

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sessions/verify", strings.NewReader(`{"code":"123456"}`))
		req.AddCookie(&http.Cookie{Name: "_session", Value: "s1.forged"})
		rec, _ := do(r, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, uc.gotSID)
	})

	t.Run("Verified", func(t *testing.T) {
		uc.verifyFn = func() (*usecase.VerifyCodeOutput, error) {
			return &usecase.VerifyCodeOutput{UserID: 42, Email: "jane@example.com", AccessToken: "tok"}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sessions/verify", strings.NewReader(`{"code":"123456"}`))
		req.AddCookie(sess)
		rec, env := do(r, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(env.Data), `"access_token":"tok"`)
		require.Contains(t, string(env.Data), `"user_id":"42"`)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestSessionCookieOutlivesCodeDeadline(t *testing.T) {
	uc := &stubUC{sid: "9f2c4e7a1b"}
	r, _ := newEndpointSuite(t, uc)

	srv := httptest.NewServer(r)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(path, body string) (*http.Response, envelope) {
		resp, err := client.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		return resp, env
	}

	// The stubbed deadline already lies in the past.
	resp, _ := post("/api/v1/auth/sessions", `{"email":"jane@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	uc.verifyFn = func() (*usecase.VerifyCodeOutput, error) { return nil, entity.ErrExpiredTotp }
	resp, env := post("/api/v1/auth/sessions/verify", `{"code":"123456"}`)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "9f2c4e7a1b", uc.gotSID)
	require.Equal(t, entity.ReasonExpiredTotp, env.Reason)
	require.Equal(t, entity.NoticeExpiredLink.String(), env.Notice)
}

func TestRestartClearsCookie(t *testing.T) {
	uc := &stubUC{}
	r, cookie := newEndpointSuite(t, uc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/sessions", nil)
	req.AddCookie(cookie.Set("s1"))
	rec, _ := do(r, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 1, uc.restarts)
	require.Equal(t, "s1", uc.gotSID)
}

func TestSessionStatusNotice(t *testing.T) {
	uc := &stubUC{}
	r, _ := newEndpointSuite(t, uc)

	rec, env := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/auth/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"status":"LOCKED"`)
	require.Contains(t, string(env.Data), `"notice":"rate-limited"`)
}

func TestMagicLinkWrongBrowser(t *testing.T) {
	uc := &stubUC{linkOut: &usecase.VerifyMagicLinkOutput{
		WrongBrowser: true,
		Code:         "123456",
		Notice:       entity.NoticeWrongBrowser,
	}}
	r, _ := newEndpointSuite(t, uc)

	rec, env := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/auth/magic-link?token=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"notice":"wrong-browser"`)
	require.Contains(t, string(env.Data), `"code":"123456"`)
	require.Empty(t, rec.Result().Cookies())
}

func TestProfileRequiresToken(t *testing.T) {
	r, _ := newEndpointSuite(t, &stubUC{})

	rec, _ := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
