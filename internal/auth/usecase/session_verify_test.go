package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/stretchr/testify/require"
)

func TestVerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		out, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "123456"})
		require.NoError(t, err)
		require.Equal(t, "jane@example.com", out.Email)
		require.NotEmpty(t, out.AccessToken)

		clm, err := st.signer.Verify(out.AccessToken)
		require.NoError(t, err)
		require.Equal(t, out.UserID, clm.UserID)

		_, ok := st.sessions.get(id)
		require.False(t, ok, "verified session is destroyed")
		require.Contains(t, st.users.byEmail, "jane@example.com")
	})

	t.Run("LockoutScenario", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "000000"})
		requireReason(t, err, entity.ReasonInvalidTotp)
		_, err = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "111111"})
		requireReason(t, err, entity.ReasonInvalidTotp)
		_, err = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "222222"})
		requireReason(t, err, entity.ReasonRateLimitExceeded)

		writes := st.sessions.writes
		_, err = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "123456"})
		requireReason(t, err, entity.ReasonRateLimitExceeded)

		sess, _ := st.sessions.get(id)
		require.Equal(t, entity.SessionStatusLocked, sess.Status)
		require.Equal(t, 3, sess.Attempts)
		require.Equal(t, writes, st.sessions.writes, "locked session is not written again")
	})

	t.Run("ExpiryScenario", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		st.clock.Advance(11 * time.Minute)
		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "123456"})
		requireReason(t, err, entity.ReasonExpiredTotp)

		sess, _ := st.sessions.get(id)
		require.Equal(t, entity.SessionStatusExpired, sess.Status)

		_, err = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "000000"})
		requireReason(t, err, entity.ReasonExpiredTotp)
	})

	t.Run("MissingSession", func(t *testing.T) {
		st := newSuite(t)

		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{Code: "123456"})
		requireReason(t, err, entity.ReasonMissingSessionEmail)

		_, err = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: "unknown", Code: "123456"})
		requireReason(t, err, entity.ReasonMissingSessionEmail)
	})

	t.Run("MissingCode", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")
		st.sessions.data[id] = func() entity.Session {
			s := st.sessions.data[id]
			s.ClearCode()
			return s
		}()

		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "123456"})
		requireReason(t, err, entity.ReasonMissingSessionTotp)
	})

	t.Run("MalformedCodeIsNotAnAttempt", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "12ab"})
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, goerror.CodeInvalidInput, gerr.Code())

		sess, _ := st.sessions.get(id)
		require.Zero(t, sess.Attempts)
	})

	t.Run("WrongLengthIsNotAnAttempt", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		_, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "1234567"})
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, goerror.CodeInvalidInput, gerr.Code())
		require.Contains(t, gerr.Fields(), "code")

		sess, _ := st.sessions.get(id)
		require.Zero(t, sess.Attempts)
	})

	t.Run("DoubleSubmitVerifiesOnce", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for range 4 {
			wg.Go(func() {
				if _, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "123456"}); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			})
		}
		wg.Wait()

		require.Equal(t, 1, success)
	})

	t.Run("ExistingUserKeepsID", func(t *testing.T) {
		st := newSuite(t, "123456", "654321")

		first, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: st.start(t, "jane@example.com"), Code: "123456"})
		require.NoError(t, err)
		second, err := st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: st.start(t, "jane@example.com"), Code: "654321"})
		require.NoError(t, err)

		require.Equal(t, first.UserID, second.UserID)
	})
}
