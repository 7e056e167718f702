package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

var (
	CurrentUserKey  = contextKey("currentUser")
	ClientIPKey     = contextKey("clientIP")
	FiberContextWeb = contextKey("fiberContextWebApplications")
)

// CurrentUser is the authenticated caller: the subject of a verified access token.
type CurrentUser struct {
	ID    string
	Email string
	Token string
}

func WithCurrentUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, CurrentUserKey, user)
}

func GetCurrentUser(ctx context.Context) *CurrentUser {
	if user, ok := ctx.Value(CurrentUserKey).(*CurrentUser); ok {
		return user
	}

	return nil
}

// UserFromFiber reads the caller stored by the authentication middleware.
func UserFromFiber(c *fiber.Ctx) *CurrentUser {
	if user, ok := c.Locals(CurrentUserKey).(*CurrentUser); ok {
		return user
	}
	return nil
}

func GetIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}

func GetFiberWebContext(ctx context.Context) (*fiber.Ctx, bool) {
	if fiberCtx, ok := ctx.Value(FiberContextWeb).(*fiber.Ctx); ok {
		return fiberCtx, true
	}
	return nil, false
}
