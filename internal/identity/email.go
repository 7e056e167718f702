package identity

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/url"
)

//go:embed templates/*.html
var emailTemplates embed.FS

var templates = template.Must(template.ParseFS(emailTemplates, "templates/*.html"))

type emailData struct {
	AppName string
	Name    string
	Email   string
	Link    string
}

// actionLink appends mode and oobCode to the caller's callback URL.
func actionLink(callbackURL, mode, code string) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mode", mode)
	q.Set("oobCode", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) sendTemplate(ctx context.Context, to, subject, name string, data emailData) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return err
	}
	return p.mailer.SendHTMLEmail(ctx, to, subject, body.String())
}
