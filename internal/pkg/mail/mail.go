// Package mail sends transactional email. Use cases depend on Mail and Message
// only; the SMTP delivery lives in this package.
package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email.
type Message struct {
	From     string // falls back to the sender configured on the implementation
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every address the message is delivered to.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
