package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/logger"
)

// ErrorHandler renders handler errors as JSON. Only unexpected errors are logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErr *customErrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   customErrors.ErrorTypeValidation,
			"message": validationErr.Error(),
			"fields":  validationErr.Fields,
		})
	}

	var typedErr *customErrors.TypedError
	if errors.As(err, &typedErr) {
		body := fiber.Map{}
		for k, v := range typedErr.Extensions {
			body[k] = v
		}
		body["error"] = typedErr.ErrorType()
		body["message"] = typedErr.Message

		status := typedErr.Status
		if status == 0 {
			status = fiber.StatusBadRequest
		}
		if status >= fiber.StatusInternalServerError && typedErr.Err != nil {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(typedErr.Err),
			)
		}
		return c.Status(status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error":   fiberErr.Code,
			"message": fiberErr.Message,
		})
	}

	logger.Error("internal error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   customErrors.ErrorTypeInternalServerError,
		"message": "Internal Server Error",
	})
}
