package entity

type SessionStatus int16

const (
	SessionStatusUnknown SessionStatus = 0

	// SessionStatusPending mean a code was issued and is waiting for submission.
	SessionStatusPending SessionStatus = 1

	// SessionStatusVerified mean the correct code was submitted in time.
	SessionStatusVerified SessionStatus = 2

	// SessionStatusExpired mean the code outlived its TTL before a correct submission.
	SessionStatusExpired SessionStatus = 3

	// SessionStatusLocked mean the attempt cap was reached.
	SessionStatusLocked SessionStatus = 4
)

func (ss SessionStatus) String() string {
	switch ss {
	case SessionStatusPending:
		return "PENDING"
	case SessionStatusVerified:
		return "VERIFIED"
	case SessionStatusExpired:
		return "EXPIRED"
	case SessionStatusLocked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}

func (ss SessionStatus) Ensure() SessionStatus {
	switch ss {
	case SessionStatusPending, SessionStatusVerified, SessionStatusExpired, SessionStatusLocked:
		return ss
	default:
		return SessionStatusUnknown
	}
}

func (ss SessionStatus) IsTerminal() bool {
	switch ss {
	case SessionStatusVerified, SessionStatusExpired, SessionStatusLocked:
		return true
	default:
		return false
	}
}

// Notice names the screen a client renders for a session outcome.
type Notice string

const (
	NoticeNone           Notice = ""
	NoticeExpiredLink    Notice = "expired-link"
	NoticeInvalidLink    Notice = "invalid-link"
	NoticeInvalidSession Notice = "invalid-session"
	NoticeRateLimited    Notice = "rate-limited"
	NoticeWrongBrowser   Notice = "wrong-browser"
)

func (n Notice) String() string { return string(n) }

// NoticeForStatus is the notice shown for a session sitting in status.
func NoticeForStatus(ss SessionStatus) Notice {
	switch ss {
	case SessionStatusExpired:
		return NoticeExpiredLink
	case SessionStatusLocked:
		return NoticeRateLimited
	case SessionStatusVerified, SessionStatusUnknown:
		return NoticeInvalidSession
	default:
		return NoticeNone
	}
}
