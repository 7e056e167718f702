package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/auth/service"
	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type signupRequest struct {
	Email    string `json:"email" validate:"nonblank"`
	Password string `json:"password" validate:"nonblank"`
	Name     string `json:"name" validate:"nonblank"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	session, err := h.authService.Signup(c.UserContext(), service.SignupInput(req))
	if err != nil {
		return err
	}

	return h.respondWithSession(c, fiber.StatusCreated, session)
}

type verifyEmailRequest struct {
	Code string `json:"oobCode" validate:"nonblank"`
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	redirect, err := h.authService.VerifyEmail(c.UserContext(), req.Code, auth.UserFromFiber(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"verified": true, "redirect": redirect})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	user := auth.UserFromFiber(c)
	if err := h.authService.ResendVerification(c.UserContext(), user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"sent": user != nil})
}
