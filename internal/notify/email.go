package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// smtpSender delivers plain-text mail over SMTP. The dialer upgrades the
// connection with STARTTLS before authenticating.
type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func newSMTPSender(creds SMTPCredentials) EmailSender {
	return &smtpSender{
		dialer: gomail.NewDialer(creds.Host, creds.Port, creds.Username, creds.Password),
		from:   creds.Username,
	}
}

func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
