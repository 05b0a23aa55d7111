package entity

import (
	"github.com/shandysiswandi/folio/internal/pkg/goerror"
)

// Reasons are the stable identifiers clients branch on.
const (
	ReasonRequiredEmail       = "RequiredEmail"
	ReasonInvalidEmail        = "InvalidEmail"
	ReasonInvalidTotp         = "InvalidTotp"
	ReasonExpiredTotp         = "ExpiredTotp"
	ReasonMissingSessionEmail = "MissingSessionEmail"
	ReasonMissingSessionTotp  = "MissingSessionTotp"
	ReasonRateLimitExceeded   = "RateLimitExceeded"
	ReasonInvalidMagicLink    = "InvalidMagicLink"
	ReasonDeliveryFailed      = "DeliveryFailed"
)

var (
	ErrRequiredEmail       = newReason(ReasonRequiredEmail, "Email is required", goerror.CodeInvalidInput)
	ErrInvalidEmail        = newReason(ReasonInvalidEmail, "Email is not a valid address", goerror.CodeInvalidInput)
	ErrInvalidTotp         = newReason(ReasonInvalidTotp, "The code is incorrect", goerror.CodeUnauthorized)
	ErrExpiredTotp         = newReason(ReasonExpiredTotp, "The code has expired", goerror.CodeUnauthorized)
	ErrMissingSessionEmail = newReason(ReasonMissingSessionEmail, "No sign-in in progress", goerror.CodeUnauthorized)
	ErrMissingSessionTotp  = newReason(ReasonMissingSessionTotp, "No active code for this sign-in", goerror.CodeUnauthorized)
	ErrRateLimitExceeded   = newReason(ReasonRateLimitExceeded, "Too many attempts", goerror.CodeTooManyRequest)
	ErrInvalidMagicLink    = newReason(ReasonInvalidMagicLink, "The sign-in link is invalid", goerror.CodeInvalidInput)
	ErrDeliveryFailed      = newReason(ReasonDeliveryFailed, "The code could not be sent", goerror.CodeUnavailable)
)

func newReason(reason, msg string, code goerror.Code) error {
	return goerror.NewReasonNotice(reason, NoticeForReason(reason).String(), msg, code)
}

// NoticeForReason maps a failure reason to the notice rendered for it.
func NoticeForReason(reason string) Notice {
	switch reason {
	case ReasonExpiredTotp:
		return NoticeExpiredLink
	case ReasonInvalidMagicLink:
		return NoticeInvalidLink
	case ReasonMissingSessionEmail, ReasonMissingSessionTotp:
		return NoticeInvalidSession
	case ReasonRateLimitExceeded:
		return NoticeRateLimited
	default:
		return NoticeNone
	}
}
