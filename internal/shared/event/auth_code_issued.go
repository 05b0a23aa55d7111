// Package event holds the payloads exchanged between modules over messaging.
package event

import "strconv"

const AuthCodeIssuedTopic string = "auth.code.issued"
const AuthCodeIssuedConsumerNotification string = "auth_code_issued_notification"

// AuthCodeIssuedMessage carries a freshly issued sign-in code to the mailer.
// The plaintext code only travels on the internal broker; the session store
// keeps its hash.
type AuthCodeIssuedMessage struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	MagicLink string `json:"magic_link"`
	IssuedAt  int64  `json:"issued_at"`  // unix millis
	ExpiresAt int64  `json:"expires_at"` // unix millis
}

// IdempotencyKey identifies one issuance; redeliveries share it.
func (m AuthCodeIssuedMessage) IdempotencyKey() string {
	return "code-issued:" + m.SessionID + ":" + strconv.FormatInt(m.IssuedAt, 10)
}
