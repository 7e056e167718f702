package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/auth/cookies"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/jwt"
	"github.com/abisalde/student-portal/pkg/logger"
)

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// Authenticate resolves the caller from a bearer token or the access cookie.
// Requests without a usable token continue anonymously.
func Authenticate(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := stripToken(c)
		if err != nil || tokenString == "" {
			return c.Next()
		}

		claims, err := verifier.VerifyIDToken(c.UserContext(), tokenString)
		if err != nil {
			logger.Debug("ignoring unusable token", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}

		user := &auth.CurrentUser{
			ID:    claims.UserID,
			Email: claims.UserEmail,
			Token: tokenString,
		}
		c.Locals(auth.CurrentUserKey, user)
		c.SetUserContext(auth.WithCurrentUser(c.UserContext(), user))
		return c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth(c *fiber.Ctx) error {
	if auth.UserFromFiber(c) == nil {
		return customErrors.AuthenticationRequired
	}
	return c.Next()
}

func stripToken(c *fiber.Ctx) (string, error) {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader == "" {
		return c.Cookies(cookies.BrowserAccessTokenName), nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return "", errors.New("token missing after Bearer")
		}
		return token, nil
	}

	return authHeader, nil
}
