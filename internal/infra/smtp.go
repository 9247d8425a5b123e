package infra

import (
	"fmt"
	"net/smtp"

	"tiendaapi/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends plain-text emails with an optional PDF attachment.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// Send delivers one email. attachmentPath may be empty.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP_HOST no configurado")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
