package mail

import (
	"context"
	"crypto/tls"
	"errors"

	"gopkg.in/gomail.v2"
)

var (
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("no recipients provided")
	ErrSMTPNoSender         = errors.New("no sender provided")
	ErrSMTPNoBody           = errors.New("message has neither text nor html body")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Insecure skips TLS verification, meant for local catchers like mailpit.
	Insecure bool
}

// SMTP delivers messages through gomail's dialer.
type SMTP struct {
	defaultFrom string
	send        func(msgs ...*gomail.Message) error
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Insecure {
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local catchers
	}

	return &SMTP{defaultFrom: cfg.From, send: dialer.DialAndSend}, nil
}

// newSMTPWithSender is used by tests to capture outgoing messages.
func newSMTPWithSender(from string, sender gomail.Sender) *SMTP {
	return &SMTP{
		defaultFrom: from,
		send: func(msgs ...*gomail.Message) error {
			return gomail.Send(sender, msgs...)
		},
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	return s.send(m)
}

func (s *SMTP) build(msg Message) (*gomail.Message, error) {
	if len(msg.Recipients()) == 0 {
		return nil, ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return nil, ErrSMTPNoSender
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", from)
	if len(msg.To) > 0 {
		m.SetHeader("To", msg.To...)
	}
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	case msg.TextBody != "":
		m.SetBody("text/plain", msg.TextBody)
	default:
		return nil, ErrSMTPNoBody
	}

	return m, nil
}

func (s *SMTP) Close() error {
	return nil
}
