package usecase

import (
	"context"
	"errors"
	"net/url"

	"github.com/shandysiswandi/folio/internal/auth/entity"
	"github.com/shandysiswandi/folio/internal/pkg/jwt"
)

type VerifyMagicLinkInput struct {
	SessionID string // from the browser following the link
	Token     string
}

type VerifyMagicLinkOutput struct {
	Verified *VerifyCodeOutput
	// WrongBrowser is set when the link was opened outside the browser that
	// started the sign-in. Code is then shown for manual entry there.
	WrongBrowser bool
	Code         string
	Notice       entity.Notice
}

func (s *Usecase) VerifyMagicLink(ctx context.Context, in VerifyMagicLinkInput) (*VerifyMagicLinkOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyMagicLink")
	defer span.End()

	if in.Token == "" {
		return nil, sessionFailure(ctx, in.SessionID, entity.ErrInvalidMagicLink)
	}

	clm, err := s.links.VerifyLink(in.Token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, sessionFailure(ctx, in.SessionID, entity.ErrExpiredTotp)
	}
	if err != nil || clm.SessionID == "" || clm.Code == "" {
		return nil, sessionFailure(ctx, in.SessionID, entity.ErrInvalidMagicLink)
	}

	if in.SessionID != clm.SessionID {
		return &VerifyMagicLinkOutput{
			WrongBrowser: true,
			Code:         clm.Code,
			Notice:       entity.NoticeWrongBrowser,
		}, nil
	}

	out, err := s.verify(ctx, clm.SessionID, clm.Code, true)
	if err != nil {
		return nil, err
	}

	return &VerifyMagicLinkOutput{Verified: out}, nil
}

func (s *Usecase) magicLinkURL(token string) string {
	base := s.cfg.GetString("magic_link.base_url")

	u, err := url.Parse(base)
	if err != nil || base == "" {
		return base + "?token=" + url.QueryEscape(token)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String()
}
