package entity

import (
	"errors"
	"time"
)

// Session is a server-side email verification in progress. Only ID ever leaves
// the server.
type Session struct {
	ID          string
	Email       string
	CodeHash    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	Status      SessionStatus
}

// NewSession returns a pending session holding its first code.
func NewSession(id, email, codeHash string, now time.Time, ttl time.Duration, maxAttempts int) Session {
	s := Session{ID: id, Email: email, MaxAttempts: maxAttempts}
	s.Issue(codeHash, now, ttl)

	return s
}

// Issue replaces the active code. The previous hash and deadline are gone and
// the attempt counter starts over.
func (s *Session) Issue(codeHash string, now time.Time, ttl time.Duration) {
	s.CodeHash = codeHash
	s.IssuedAt = now
	s.ExpiresAt = now.Add(ttl)
	s.Attempts = 0
	s.Status = SessionStatusPending
}

// Reissue issues a fresh code for a session that is still pending. A session
// whose code was cleared may be reissued; terminal ones may not.
func (s *Session) Reissue(codeHash string, now time.Time, ttl time.Duration) error {
	if err := s.Check(now); err != nil && !(errors.Is(err, ErrMissingSessionTotp) && s.Status == SessionStatusPending) {
		return err
	}

	s.Issue(codeHash, now, ttl)
	return nil
}

// ClearCode drops the active code, leaving the session without one.
func (s *Session) ClearCode() {
	s.CodeHash = ""
}

// Expire moves a pending session past its deadline to EXPIRED and reports
// whether it did.
func (s *Session) Expire(now time.Time) bool {
	if s.Status != SessionStatusPending || !now.After(s.ExpiresAt) {
		return false
	}

	s.Status = SessionStatusExpired
	return true
}

// RemainingAttempts is how many wrong codes are still accepted.
func (s *Session) RemainingAttempts() int {
	if s.Status != SessionStatusPending {
		return 0
	}

	return max(s.MaxAttempts-s.Attempts, 0)
}

// Check returns the failure that blocks any use of the session, nil when it
// is pending with an active code. It applies the expiry transition.
func (s *Session) Check(now time.Time) error {
	switch s.Status.Ensure() {
	case SessionStatusLocked:
		return ErrRateLimitExceeded
	case SessionStatusExpired:
		return ErrExpiredTotp
	case SessionStatusVerified, SessionStatusUnknown:
		return ErrMissingSessionTotp
	}

	if s.Expire(now) {
		return ErrExpiredTotp
	}

	if s.CodeHash == "" {
		return ErrMissingSessionTotp
	}

	return nil
}

// Attempt applies one code submission. matches compares the submission with
// the stored hash and is only consulted for a usable session. A nil result
// means the session is now VERIFIED.
func (s *Session) Attempt(now time.Time, matches func(codeHash string) bool) error {
	if err := s.Check(now); err != nil {
		return err
	}

	if matches(s.CodeHash) {
		s.Status = SessionStatusVerified
		return nil
	}

	s.Attempts++
	if s.Attempts >= s.MaxAttempts {
		s.Attempts = s.MaxAttempts
		s.Status = SessionStatusLocked
		return ErrRateLimitExceeded
	}

	return ErrInvalidTotp
}
