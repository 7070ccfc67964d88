package notify

import (
	"fmt"

	gopkgmail "gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPでメールを送る
type EmailSender struct {
	cfg    SMTPConfig
	dialer *gopkgmail.Dialer
}

func NewEmailSender(cfg SMTPConfig) *EmailSender {
	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	// 465は暗黙TLS、それ以外はSTARTTLS
	d.SSL = cfg.Port == 465
	return &EmailSender{cfg: cfg, dialer: d}
}

func (s *EmailSender) Send(to string, subject string, plain string, html string) error {
	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plain)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
