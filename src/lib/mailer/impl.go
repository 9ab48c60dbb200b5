package mailer

import (
	"context"
	"errors"

	"github.com/judy2649/the-grey-pegeant/src/lib"
	awslib "github.com/judy2649/the-grey-pegeant/src/lib/aws"
	"github.com/judy2649/the-grey-pegeant/src/notify"
)

// SMTPMailer sends ticket emails over SMTP.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (m *SMTPMailer) Configured() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

func (m *SMTPMailer) SendEmail(ctx context.Context, e notify.Email) error {
	c, err := lib.GetSMTPClient(m.Host, m.Port, m.Username, m.Password)
	if err != nil {
		return err
	}
	from := m.From
	if from == "" {
		from = m.Username
	}
	msg, err := lib.BuildMessage(&lib.SendMailInput{
		From:        from,
		FromName:    m.FromName,
		To:          []string{e.To},
		Subject:     e.Subject,
		Body:        e.HTML,
		Html:        true,
		Attachments: e.Attachments,
	})
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}

// SESMailer sends through Amazon SES. Attachments are not supported by SendEmail and are dropped.
type SESMailer struct {
	From string
}

func (m *SESMailer) Configured() bool {
	return m.From != ""
}

func (m *SESMailer) SendEmail(ctx context.Context, e notify.Email) error {
	if m.From == "" {
		return errors.New("ses sender address not configured")
	}
	return awslib.SESSendMessage(ctx, m.From, []string{e.To}, e.Subject, e.HTML)
}
