package usecase

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/stretchr/testify/require"
)

func linkToken(t *testing.T, st *suite, i int) string {
	t.Helper()

	u, err := url.Parse(st.mq.events[i].MagicLink)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestVerifyMagicLink(t *testing.T) {
	ctx := context.Background()

	t.Run("SameBrowser", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		out, err := st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 0)})
		require.NoError(t, err)
		require.False(t, out.WrongBrowser)
		require.NotNil(t, out.Verified)
		require.NotEmpty(t, out.Verified.AccessToken)
	})

	t.Run("WrongBrowser", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")
		before, _ := st.sessions.get(id)

		out, err := st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{Token: linkToken(t, st, 0)})
		require.NoError(t, err)
		require.True(t, out.WrongBrowser)
		require.Equal(t, "123456", out.Code)
		require.Equal(t, entity.NoticeWrongBrowser, out.Notice)
		require.Nil(t, out.Verified)

		after, _ := st.sessions.get(id)
		require.Equal(t, before, after)
	})

	t.Run("Tampered", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")

		_, err := st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 0) + "x"})
		requireReason(t, err, entity.ReasonInvalidMagicLink)

		_, err = st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: "garbage"})
		requireReason(t, err, entity.ReasonInvalidMagicLink)

		_, err = st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id})
		requireReason(t, err, entity.ReasonInvalidMagicLink)
	})

	t.Run("Expired", func(t *testing.T) {
		st := newSuite(t)
		id := st.start(t, "jane@example.com")
		st.clock.Advance(11 * time.Minute)

		_, err := st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 0)})
		requireReason(t, err, entity.ReasonExpiredTotp)
	})

	t.Run("SupersededLink", func(t *testing.T) {
		st := newSuite(t, "123456", "654321")
		id := st.start(t, "jane@example.com")
		_, err := st.uc.ResendCode(ctx, ResendCodeInput{SessionID: id})
		require.NoError(t, err)

		_, err = st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 0)})
		requireReason(t, err, entity.ReasonInvalidMagicLink)

		sess, ok := st.sessions.get(id)
		require.True(t, ok)
		require.Zero(t, sess.Attempts)
		require.Equal(t, entity.SessionStatusPending, sess.Status)

		out, err := st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 1)})
		require.NoError(t, err)
		require.NotNil(t, out.Verified)
	})

	t.Run("LockedBeforeStaleCheck", func(t *testing.T) {
		st := newSuite(t, "123456", "654321")
		id := st.start(t, "jane@example.com")
		_, err := st.uc.ResendCode(ctx, ResendCodeInput{SessionID: id})
		require.NoError(t, err)

		for range 5 {
			_, _ = st.uc.VerifyCode(ctx, VerifyCodeInput{SessionID: id, Code: "000000"})
		}

		_, err = st.uc.VerifyMagicLink(ctx, VerifyMagicLinkInput{SessionID: id, Token: linkToken(t, st, 0)})
		requireReason(t, err, entity.ReasonRateLimitExceeded)
	})
}
