// Package mailer sends outgoing mail through an SMTP account.
package mailer

//go:generate mockgen -source=mailer.go -destination=mocks/mocks.go -package=mocks Mailer

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when no SMTP server is set
var ErrNotConfigured = errors.New("smtp server is not configured")

// Account is the SMTP account used to send mail
type Account struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Message is a single outgoing mail
type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers messages through an account
type Mailer interface {
	Send(ctx context.Context, account Account, msg Message) error
}

// SMTPMailer sends mail with gomail
type SMTPMailer struct{}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{}
}

// Send dials the account's server and delivers msg
func (m *SMTPMailer) Send(ctx context.Context, account Account, msg Message) error {
	if account.Host == "" || account.Port == 0 {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	from := account.From
	if from == "" {
		from = account.Username
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	if msg.HTML {
		gm.SetBody("text/html", msg.Body)
	} else {
		gm.SetBody("text/plain", msg.Body)
	}

	dialer := gomail.NewDialer(account.Host, account.Port, account.Username, account.Password)

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(gm)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}
