package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth/cookies"
	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh accepts the refresh token from the body or, for browsers, the session cookie.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return customErrors.ErrSomethingWentWrong.WithCause(err)
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(cookies.BrowserSessionTokenName)
	}
	if req.RefreshToken == "" {
		return customErrors.AuthenticationRequired
	}

	session, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return h.respondWithSession(c, fiber.StatusOK, session)
}
