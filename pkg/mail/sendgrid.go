package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridMailService struct {
	key  string
	from *sgmail.Email
	api  func(request rest.Request) (*rest.Response, error)
}

func NewSendgridMailService(key, appName, from string) *SendgridMailService {
	return &SendgridMailService{
		key:  key,
		from: sgmail.NewEmail(appName, from),
		api:  sendgrid.API,
	}
}

func (s *SendgridMailService) build(recipientEmail, subject string, content *sgmail.Content) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", recipientEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(content)
	return m
}

func (s *SendgridMailService) send(ctx context.Context, m *sgmail.SGMailV3) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	errChan := make(chan error, 1)
	go func() {
		res, err := s.api(req)
		if err != nil {
			errChan <- err
			return
		}
		if res.StatusCode >= http.StatusBadRequest {
			errChan <- fmt.Errorf("sendgrid: unexpected status %d: %s", res.StatusCode, res.Body)
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("email sending canceled: %w", ctx.Err())
	}
}

func (s *SendgridMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	return s.send(ctx, s.build(recipientEmail, subject, sgmail.NewContent("text/plain", body)))
}

func (s *SendgridMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	return s.send(ctx, s.build(recipientEmail, subject, sgmail.NewContent("text/html", htmlBody)))
}
