package service

import (
	mail "github.com/go-mail/mail/v2"
)

// Mailer sends account emails over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: from}
}

// SendVerification mails the verification link to a newly registered
// librarian.
func (m *Mailer) SendVerification(to, verifyURL string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your library account")
	msg.SetBody("text/plain",
		"Welcome to the library.\n\n"+
			"Open the link below to verify your email address:\n\n"+
			verifyURL+"\n\n"+
			"If you did not create this account, ignore this message.\n")
	return m.dialer.DialAndSend(msg)
}
