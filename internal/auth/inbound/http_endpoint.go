package inbound

import (
	"net/http"

	"github.com/shandysiswandi/folio/internal/auth/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the email code sign-in and the gated profile.
type HTTPEndpoint struct {
	uc     uc
	cookie *SessionCookie
}

// StartSession issues a code for an email and binds the session to this browser.
// @Summary Start email sign-in
// @Description Sends a one-time code and a magic link to the email. The session handle is returned in an HttpOnly cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body StartSessionRequest true "Email payload"
// @Success 201 {object} router.successResponse{data=StartSessionResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "RequiredEmail or InvalidEmail"
// @Failure 503 {object} router.errorResponse "DeliveryFailed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/sessions [post]
func (h *HTTPEndpoint) StartSession(r *router.Request) (any, error) {
	var req StartSessionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.StartSession(r.Context(), usecase.StartSessionInput{
		Email:             req.Email,
		PreviousSessionID: h.cookie.Read(r),
	})
	if err != nil {
		return nil, err
	}

	return StartSessionResponse{
		withCookies: withCookies{cookies: []*http.Cookie{h.cookie.Set(resp.SessionID)}},
		Email:       resp.Email,
		ExpiresAt:   resp.ExpiresAt,
		MaxAttempts: resp.MaxAttempts,
	}, nil
}

// SessionStatus reports the state of the sign-in bound to this browser.
// @Summary Sign-in status
// @Description Returns the session state and the notice the client should render, if any.
// @Tags Auth
// @Produce json
// @Success 200 {object} router.successResponse{data=SessionStatusResponse} "Session state"
// @Failure 401 {object} router.errorResponse "MissingSessionEmail"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/sessions [get]
func (h *HTTPEndpoint) SessionStatus(r *router.Request) (any, error) {
	resp, err := h.uc.SessionStatus(r.Context(), usecase.SessionStatusInput{SessionID: h.cookie.Read(r)})
	if err != nil {
		return nil, err
	}

	return SessionStatusResponse{
		Status:            resp.Status.String(),
		Email:             resp.Email,
		ExpiresAt:         resp.ExpiresAt,
		AttemptsRemaining: resp.AttemptsRemaining,
		Notice:            string(resp.Notice),
	}, nil
}

// VerifyCode checks a submitted code and signs the user in.
// @Summary Verify sign-in code
// @Description Verifies the code against the session bound to this browser. Every mismatch counts toward the attempt limit.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse} "Signed in"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "InvalidTotp, ExpiredTotp, MissingSessionEmail or MissingSessionTotp"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "RateLimitExceeded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/sessions/verify [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		SessionID: h.cookie.Read(r),
		Code:      req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{
		withCookies: withCookies{cookies: []*http.Cookie{h.cookie.Clear()}},
		AccessToken: resp.AccessToken,
		UserID:      resp.UserID,
		Email:       resp.Email,
	}, nil
}

// ResendCode replaces the code of the pending sign-in.
// @Summary Resend sign-in code
// @Tags Auth
// @Produce json
// @Success 200 {object} router.successResponse{data=ResendCodeResponse} "Code sent"
// @Failure 401 {object} router.errorResponse "MissingSessionEmail, MissingSessionTotp or ExpiredTotp"
// @Failure 429 {object} router.errorResponse "RateLimitExceeded"
// @Failure 503 {object} router.errorResponse "DeliveryFailed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/sessions/resend [post]
func (h *HTTPEndpoint) ResendCode(r *router.Request) (any, error) {
	sid := h.cookie.Read(r)

	resp, err := h.uc.ResendCode(r.Context(), usecase.ResendCodeInput{SessionID: sid})
	if err != nil {
		return nil, err
	}

	return ResendCodeResponse{
		withCookies: withCookies{cookies: []*http.Cookie{h.cookie.Set(sid)}},
		ExpiresAt:   resp.ExpiresAt,
		MaxAttempts: resp.MaxAttempts,
	}, nil
}

// Restart discards the sign-in so the user can enter an email again.
// @Summary Restart sign-in
// @Tags Auth
// @Success 204 "Session discarded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/sessions [delete]
func (h *HTTPEndpoint) Restart(r *router.Request) (any, error) {
	if err := h.uc.Restart(r.Context(), usecase.RestartInput{SessionID: h.cookie.Read(r)}); err != nil {
		return nil, err
	}

	return RestartResponse{withCookies: withCookies{cookies: []*http.Cookie{h.cookie.Clear()}}}, nil
}

// VerifyMagicLink completes the sign-in from an emailed link.
// @Summary Follow magic link
// @Description Signs in when opened in the browser that started the sign-in. Elsewhere it returns the code for manual entry.
// @Tags Auth
// @Produce json
// @Param token query string true "Link token"
// @Success 200 {object} router.successResponse{data=MagicLinkResponse} "Link result"
// @Failure 401 {object} router.errorResponse "ExpiredTotp or InvalidTotp"
// @Failure 422 {object} router.errorResponse "InvalidMagicLink"
// @Failure 429 {object} router.errorResponse "RateLimitExceeded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/magic-link [get]
func (h *HTTPEndpoint) VerifyMagicLink(r *router.Request) (any, error) {
	resp, err := h.uc.VerifyMagicLink(r.Context(), usecase.VerifyMagicLinkInput{
		SessionID: h.cookie.Read(r),
		Token:     r.GetQuery("token"),
	})
	if err != nil {
		return nil, err
	}

	if resp.WrongBrowser {
		return MagicLinkResponse{Notice: string(resp.Notice), Code: resp.Code}, nil
	}

	return MagicLinkResponse{
		withCookies: withCookies{cookies: []*http.Cookie{h.cookie.Clear()}},
		Verified:    true,
		AccessToken: resp.Verified.AccessToken,
		UserID:      resp.Verified.UserID,
		Email:       resp.Verified.Email,
	}, nil
}

// Profile returns the signed-in user.
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/me [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// ProfileUpdate changes the display name of the signed-in user.
// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Profile payload"
// @Success 200 {object} router.successResponse{data=ProfileUpdateResponse} "Profile updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/me [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}); err != nil {
		return nil, err
	}

	return ProfileUpdateResponse{}, nil
}
