package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
)

type Handler struct {
	guard *Guard
}

func NewHandler(g *Guard) *Handler {
	return &Handler{guard: g}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/routes", h.ListRoutes)
	router.Get("/decide", h.Decide)
}

func (h *Handler) ListRoutes(c *fiber.Ctx) error {
	return c.JSON(Routes)
}

// Decide answers without blocking unless wait=true is passed.
func (h *Handler) Decide(c *fiber.Ctx) error {
	path := c.Query("path", "/")
	block := c.QueryBool("wait", false)

	d := h.guard.Evaluate(c.UserContext(), auth.UserFromFiber(c), path, block)
	if d.Kind == KindWait {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.JSON(d)
}
