package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/auth/cookies"
	"github.com/abisalde/student-portal/internal/auth/service"
	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email" validate:"nonblank"`
	Password string `json:"password" validate:"nonblank"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.UserContext(), service.LoginInput(req))
	if err != nil {
		return err
	}

	return h.respondWithSession(c, fiber.StatusOK, session)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	redirect, err := h.authService.Logout(c.UserContext(), auth.UserFromFiber(c))
	if err != nil {
		return err
	}

	cookies.ClearBrowserSession(c)
	return c.JSON(fiber.Map{"redirect": redirect})
}
