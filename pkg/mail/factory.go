package mail

import (
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/configs"
	"github.com/abisalde/student-portal/pkg/logger"
)

// NewMailerService picks the mail provider from mail.provider, falling back to
// Resend in production and SMTP everywhere else.
func NewMailerService(cfg *configs.Config) Mailer {
	provider := cfg.Mail.Provider
	if provider == "" {
		provider = "smtp"
		if cfg.IsProduction() {
			provider = "resend"
		}
	}

	logger.Info("initializing mail service", zap.String("provider", provider), zap.String("env", cfg.App.Env))

	switch provider {
	case "resend":
		return NewResendMailService(cfg.Mail.ResendAPIKey, cfg.Mail.SenderEmail)
	case "sendgrid":
		return NewSendgridMailService(cfg.Mail.SendgridAPIKey, cfg.App.Name, cfg.Mail.SenderEmail)
	default:
		return NewSMTPMailService(
			cfg.Mail.SMTPHost,
			cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername,
			cfg.Mail.SMTPPassword,
			cfg.Mail.SenderEmail,
		)
	}
}
