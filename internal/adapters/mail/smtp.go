package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	customErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/infra/config"
)

// SMTPSender delivers plain-text mail through a single SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
		auth: auth,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return customErrors.WrapUnavailable(err, "SendMail")
	}
	return nil
}
