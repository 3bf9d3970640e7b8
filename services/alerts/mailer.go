package alerts

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Mailer delivers alert emails.
type Mailer interface {
	Send(to, subject, body string) error
}

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

// SmtpMailer sends plain text email over SMTP.
type SmtpMailer struct {
	config SmtpConfig
}

func NewSmtpMailer(config SmtpConfig) SmtpMailer {
	return SmtpMailer{config: config}
}

func (m SmtpMailer) Send(to, subject, body string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Trolley <%s>", m.config.EmailAddress)
	mail.To = []string{to}
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}
