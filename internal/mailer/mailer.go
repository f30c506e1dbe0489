// Package mailer sends invitation emails over SMTP. Delivery is never
// on the critical path: callers fall back to sharing the signup link
// manually when a send fails.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"techlog/internal/config"
	"techlog/lib/sl"
)

type Mailer struct {
	enabled  bool
	host     string
	port     string
	from     string
	password string
	log      *slog.Logger
}

func New(conf *config.Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		enabled:  conf.SMTP.Enabled,
		host:     conf.SMTP.Host,
		port:     conf.SMTP.Port,
		from:     conf.SMTP.From,
		password: conf.SMTP.Password,
		log:      logger.With(sl.Module("mailer")),
	}
}

func (m *Mailer) SendInviteEmail(email, name, signupLink, inviterName string) error {
	subject := "Invitation to the maintenance logbook"
	body := fmt.Sprintf(
		"<p>Hello %s,</p>"+
			"<p>%s has invited you to the maintenance logbook. "+
			"Follow the link below to set up your account:</p>"+
			"<p><a href=\"%s\">%s</a></p>"+
			"<p>The invitation expires in 7 days.</p>",
		name, inviterName, signupLink, signupLink,
	)
	return m.send(email, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.enabled {
		return fmt.Errorf("mailer disabled in configuration")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return fmt.Errorf("missing SMTP configuration")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		m.from, to, subject, body,
	))

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg); err != nil {
		m.log.With(sl.Err(err)).Warn("send email failed")
		return err
	}
	m.log.Debug("email sent", slog.String("to", to))
	return nil
}
