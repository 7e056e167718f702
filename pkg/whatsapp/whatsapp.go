package whatsapp

import (
	"context"
	"fmt"
	"regexp"
)

var numberRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidateNumber reports whether number looks like an international E.164 number.
func ValidateNumber(number string) bool {
	return numberRegex.MatchString(number)
}

// Messenger delivers portal notifications over WhatsApp. Callers treat failures as best effort.
type Messenger interface {
	SendWelcomeMessage(ctx context.Context, name, phone string) error
	SendVerificationMessage(ctx context.Context, name, phone, link string) error
}

func WelcomeText(appName, name string) string {
	return fmt.Sprintf("Hi %s! Welcome to %s. Your account has been created successfully. Please verify your email address to get started.", name, appName)
}

func VerificationText(appName, name, link string) string {
	return fmt.Sprintf("Hi %s, please verify your email address for %s by opening this link: %s", name, appName, link)
}
