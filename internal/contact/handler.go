package contact

import (
	"github.com/gofiber/fiber/v2"

	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /api/contact.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Send)
}

func (h *Handler) Send(c *fiber.Ctx) error {
	var input Input
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}

	msg, err := h.service.Send(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      msg.ID,
		"message": "Thank you for your message! We'll get back to you soon.",
	})
}
