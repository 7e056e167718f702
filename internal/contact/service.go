package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/utils/validator"
	"github.com/abisalde/student-portal/pkg/logger"
)

type Input struct {
	Name    string `json:"name" validate:"nonblank"`
	Email   string `json:"email" validate:"nonblank,email_address"`
	Subject string `json:"subject" validate:"nonblank"`
	Message string `json:"message" validate:"nonblank"`
}

type Service struct {
	messages repository.ContactRepository
	validate *validator.Validator
	now      func() time.Time
}

func NewService(messages repository.ContactRepository, validate *validator.Validator) *Service {
	return &Service{messages: messages, validate: validate, now: time.Now}
}

// Send stores a contact form submission.
func (s *Service) Send(ctx context.Context, input Input) (*models.ContactMessage, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	msg := &models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		logger.Error("failed to store contact message", zap.String("email", input.Email), zap.Error(err))
		return nil, customErrors.ContactFailed.WithCause(err)
	}
	return msg, nil
}
