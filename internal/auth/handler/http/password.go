package http

import (
	"github.com/gofiber/fiber/v2"

	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type resetPasswordRequest struct {
	Email string `json:"email" validate:"nonblank,email_address"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"sent": true})
}

type confirmResetRequest struct {
	Code        string `json:"oobCode" validate:"nonblank"`
	NewPassword string `json:"newPassword" validate:"nonblank"`
}

func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req confirmResetRequest
	if err := c.BodyParser(&req); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Code, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"reset": true, "redirect": "/login"})
}
