package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer sends the staff invitation. Kept behind an interface so handlers do
// not care about the delivery channel and tests can swap in a no-op.
type Mailer interface {
	SendInvitation(to, tempPassword string) error
}

type SMTPMailer struct {
	From     string
	Password string
	Host     string
	Port     string
}

func (m *SMTPMailer) SendInvitation(to, tempPassword string) error {
	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)

	subject := "Invitation TipBox - Configurez votre mot de passe"
	body := fmt.Sprintf("Bienvenue sur TipBox !\n\nVotre mot de passe temporaire : %s\nConnectez-vous pour définir votre mot de passe définitif.\n", tempPassword)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: TipBox <" + m.From + ">\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, message)
	if err != nil {
		log.Println("SMTP error:", err)
	}
	return err
}

// Noop is used when SMTP is not configured and in tests.
type Noop struct{}

func (Noop) SendInvitation(string, string) error { return nil }
