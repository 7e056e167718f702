package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
)

// Require gates an API group behind the navigation rules of route.
// Redirects become 401 (sign in) or 403 (verify, complete profile); Wait becomes 503.
func (g *Guard) Require(route string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := g.Evaluate(c.UserContext(), auth.UserFromFiber(c), route, true)

		switch d.Kind {
		case KindWait:
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "LOADING",
				"message": "Checking your account, please retry shortly",
			})
		case KindRedirect:
			status := fiber.StatusForbidden
			if d.Location == LoginPath {
				status = fiber.StatusUnauthorized
			}
			return c.Status(status).JSON(fiber.Map{
				"redirect": d.Location,
				"from":     d.From,
			})
		}
		return c.Next()
	}
}
