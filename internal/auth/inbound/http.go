package inbound

import (
	"context"

	"github.com/shandysiswandi/folio/internal/auth/usecase"
	"github.com/shandysiswandi/folio/internal/pkg/router"
)

type uc interface {
	StartSession(ctx context.Context, in usecase.StartSessionInput) (*usecase.StartSessionOutput, error)
	SessionStatus(ctx context.Context, in usecase.SessionStatusInput) (*usecase.SessionStatusOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
	ResendCode(ctx context.Context, in usecase.ResendCodeInput) (*usecase.ResendCodeOutput, error)
	Restart(ctx context.Context, in usecase.RestartInput) error
	VerifyMagicLink(ctx context.Context, in usecase.VerifyMagicLinkInput) (*usecase.VerifyMagicLinkOutput, error)

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
}

// PublicEndpoints are served without a bearer token.
var PublicEndpoints = map[string][]string{
	"GET":    {"/api/v1/auth/sessions", "/api/v1/auth/magic-link"},
	"POST":   {"/api/v1/auth/sessions", "/api/v1/auth/sessions/verify", "/api/v1/auth/sessions/resend"},
	"DELETE": {"/api/v1/auth/sessions"},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cookie *SessionCookie) {
	end := &HTTPEndpoint{uc: uc, cookie: cookie}

	// Email code sign-in
	r.POST("/api/v1/auth/sessions", end.StartSession)
	r.GET("/api/v1/auth/sessions", end.SessionStatus)
	r.POST("/api/v1/auth/sessions/verify", end.VerifyCode)
	r.POST("/api/v1/auth/sessions/resend", end.ResendCode)
	r.DELETE("/api/v1/auth/sessions", end.Restart)
	r.GET("/api/v1/auth/magic-link", end.VerifyMagicLink)

	// Gated area (need authenticated)
	r.GET("/api/v1/me", end.Profile)
	r.PUT("/api/v1/me", end.ProfileUpdate)
}
