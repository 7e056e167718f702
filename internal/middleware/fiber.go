package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
)

// FiberWebMiddleware exposes the fiber context and client IP to services through the user context.
func FiberWebMiddleware(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, auth.FiberContextWeb, c)
	ctx = context.WithValue(ctx, auth.ClientIPKey, c.IP())
	c.SetUserContext(ctx)
	return c.Next()
}
