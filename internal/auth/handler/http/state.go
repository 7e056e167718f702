package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
)

func (h *AuthHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.authService.State(auth.UserFromFiber(c)))
}

func (h *AuthHandler) CheckVerification(c *fiber.Ctx) error {
	return c.JSON(h.authService.CheckEmailVerification(c.UserContext(), auth.UserFromFiber(c)))
}
