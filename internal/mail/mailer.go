// Package mail sends the transactional email for account verification.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Config holds SMTP settings for outbound mail.
type Config struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
}

// Enabled reports whether outbound mail is configured at all.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Mailer sends mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a mailer from SMTP config.
func NewMailer(cfg Config) *Mailer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendVerification emails the signup verification link.
func (m *Mailer) SendVerification(to, firstName, verifyURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email address")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Thanks for signing up. Click the link below to verify your email address and activate your account:</p>
<p><a href="%s">Verify email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`,
		firstName, verifyURL))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
