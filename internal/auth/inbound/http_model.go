package inbound

import (
	"net/http"
	"time"
)

type withCookies struct {
	cookies []*http.Cookie
}

func (w withCookies) Cookies() []*http.Cookie { return w.cookies }

type StartSessionRequest struct {
	Email string `json:"email"`
}

type StartSessionResponse struct {
	withCookies
	Email       string    `json:"email" example:"j***@example.com"`
	ExpiresAt   time.Time `json:"expires_at"`
	MaxAttempts int       `json:"max_attempts" example:"5"`
}

func (StartSessionResponse) StatusCode() int { return http.StatusCreated }

func (StartSessionResponse) Message() string {
	return "A sign-in code has been sent to your email."
}

type SessionStatusResponse struct {
	Status            string    `json:"status" example:"PENDING"`
	Email             string    `json:"email" example:"j***@example.com"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining" example:"4"`
	Notice            string    `json:"notice,omitempty" example:"expired-link"`
}

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type VerifyCodeResponse struct {
	withCookies
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id,string"`
	Email       string `json:"email"`
}

func (VerifyCodeResponse) Message() string { return "Email verified." }

type ResendCodeResponse struct {
	withCookies
	ExpiresAt   time.Time `json:"expires_at"`
	MaxAttempts int       `json:"max_attempts"`
}

func (ResendCodeResponse) Message() string {
	return "A new sign-in code has been sent to your email."
}

type RestartResponse struct {
	withCookies
}

func (RestartResponse) StatusCode() int { return http.StatusNoContent }

// MagicLinkResponse is either a completed sign-in or, when the link was opened
// in another browser, the code to type into the original one.
type MagicLinkResponse struct {
	withCookies
	Verified    bool   `json:"verified"`
	Notice      string `json:"notice,omitempty" example:"wrong-browser"`
	Code        string `json:"code,omitempty" example:"123456"`
	AccessToken string `json:"access_token,omitempty"`
	UserID      int64  `json:"user_id,omitempty,string"`
	Email       string `json:"email,omitempty"`
}

type ProfileResponse struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProfileUpdateResponse struct{}

func (ProfileUpdateResponse) Message() string { return "Profile updated." }
