package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	st := newSuite(t)
	verified, err := st.uc.VerifyCode(context.Background(), VerifyCodeInput{
		SessionID: st.start(t, "jane@example.com"),
		Code:      "123456",
	})
	require.NoError(t, err)

	authed := jwt.SetAuth(context.Background(), jwt.Claims{UserID: verified.UserID, UserEmail: verified.Email})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := st.uc.Profile(context.Background())
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, goerror.CodeUnauthorized, gerr.Code())
	})

	t.Run("UpdateThenRead", func(t *testing.T) {
		require.NoError(t, st.uc.ProfileUpdate(authed, ProfileUpdateInput{FirstName: " Jane ", LastName: "Doe"}))

		out, err := st.uc.Profile(authed)
		require.NoError(t, err)
		require.Equal(t, "jane@example.com", out.Email)
		require.Equal(t, "Jane", out.FirstName)
		require.Equal(t, "Doe", out.LastName)
	})

	t.Run("UpdateValidation", func(t *testing.T) {
		err := st.uc.ProfileUpdate(authed, ProfileUpdateInput{FirstName: "  "})
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, goerror.CodeInvalidInput, gerr.Code())
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 999})
		_, err := st.uc.Profile(ctx)
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, goerror.CodeUnauthorized, gerr.Code())
	})
}
