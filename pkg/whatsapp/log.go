package whatsapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/abisalde/student-portal/pkg/logger"
)

// LogMessenger writes messages to the log instead of sending them.
type LogMessenger struct {
	AppName string
}

func (m LogMessenger) SendWelcomeMessage(_ context.Context, name, phone string) error {
	logger.Info("whatsapp welcome message",
		zap.String("to", phone),
		zap.String("body", WelcomeText(m.AppName, name)))
	return nil
}

func (m LogMessenger) SendVerificationMessage(_ context.Context, name, phone, link string) error {
	logger.Info("whatsapp verification message",
		zap.String("to", phone),
		zap.String("body", VerificationText(m.AppName, name, link)))
	return nil
}
