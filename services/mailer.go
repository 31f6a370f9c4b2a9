package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Mailer sends plain-text notification emails over SMTP. In dev mode (no
// SMTP_HOST configured) it logs the message instead of sending.
type Mailer struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	devMode bool
}

func NewMailerFromEnv() *Mailer {
	host := os.Getenv("SMTP_HOST")
	return &Mailer{
		host:    host,
		port:    os.Getenv("SMTP_PORT"),
		user:    os.Getenv("SMTP_USER"),
		pass:    os.Getenv("SMTP_PASS"),
		from:    os.Getenv("SMTP_FROM"),
		devMode: host == "",
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.devMode {
		log.Printf("[DEV] email to %s: %s", to, subject)
		return nil
	}

	msg := buildEmail(m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func buildEmail(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
