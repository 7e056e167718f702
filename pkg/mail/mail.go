package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer interface {
	SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error
	SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error
}

type SMTPMailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	senderEmail  string
	send         func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailService(host, port, username, password, from string) *SMTPMailService {
	return &SMTPMailService{
		smtpHost:     host,
		smtpPort:     port,
		smtpUsername: username,
		smtpPassword: password,
		senderEmail:  from,
		send:         smtp.SendMail,
	}
}

func (s *SMTPMailService) auth() smtp.Auth {
	if s.smtpUsername == "" {
		return nil
	}
	return smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
}

func (s *SMTPMailService) deliver(ctx context.Context, recipientEmail string, message []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.send(
			fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort),
			s.auth(),
			s.senderEmail,
			[]string{recipientEmail},
			message,
		)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("email sending canceled: %w", ctx.Err())
	}
}

func (s *SMTPMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	msg := []byte(
		"From: " + s.senderEmail + "\r\n" +
			"To: " + recipientEmail + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body)

	return s.deliver(ctx, recipientEmail, msg)
}

func (s *SMTPMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	msg := []string{
		"From: " + s.senderEmail,
		"To: " + recipientEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"utf-8\"",
		"",
		htmlBody,
	}

	if err := s.deliver(ctx, recipientEmail, []byte(strings.Join(msg, "\r\n"))); err != nil {
		return fmt.Errorf("failed to send HTML email: %w", err)
	}
	return nil
}
